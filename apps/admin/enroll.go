package main

import (
	"context"

	"github.com/foreignlabs/foreign/core"
)

// enroll enrolls an existing learner in a course by slug.
func (cli *commandLine) enroll(uname, slug string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	crs, err := cli.crsSvc.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if _, err := cli.crsSvc.Enroll(ctx, usr, crs); err != nil {
		return err
	}
	return nil
}
