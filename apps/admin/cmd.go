package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	crsSvc  *course.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - apply database migrations (goose commands)")
	fmt.Println("  addlearner -name NAME -username USERNAME -email EMAIL - add or update a learner account")
	fmt.Println("  enroll -username USERNAME|EMAIL -course SLUG - enroll a learner in a course")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addLearnerCmd := flag.NewFlagSet("addlearner", flag.ExitOnError)
	addLearnerName := addLearnerCmd.String("name", "", "The learner's full name.")
	addLearnerUname := addLearnerCmd.String("username", "", "The learner's username. The password will be prompted next.")
	addLearnerEmail := addLearnerCmd.String("email", "", "The learner's email.")

	enrollCmd := flag.NewFlagSet("enroll", flag.ExitOnError)
	enrollUname := enrollCmd.String("username", "", "The learner's username or email.")
	enrollCourse := enrollCmd.String("course", "", "The course slug.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addlearner":
		if err := addLearnerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addLearnerName == "" || *addLearnerUname == "" || *addLearnerEmail == "" {
			addLearnerCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addLearnerCmd.Usage()
			return errHelp
		}
		return cli.addLearner(*addLearnerName, *addLearnerUname, *addLearnerEmail, string(pwd))
	case "enroll":
		if err := enrollCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *enrollUname == "" || *enrollCourse == "" {
			enrollCmd.Usage()
			return errHelp
		}
		return cli.enroll(*enrollUname, *enrollCourse)
	default:
		cli.printUsage()
		return errHelp
	}
}
