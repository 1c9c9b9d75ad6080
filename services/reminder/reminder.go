// Package remindersvc runs the daily review-reminder job: every learner
// with flashcards due gets one email nudging them back into the game.
package remindersvc

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/flashcards"
)

type Service struct {
	conf      *core.Config
	logger    core.Logger
	mailSvc   core.EmailService
	cardSvc   flashcards.ServiceInterface
	scheduler *gocron.Scheduler
}

func NewService(conf *core.Config, logger core.Logger, mailSvc core.EmailService, cardSvc flashcards.ServiceInterface) *Service {
	return &Service{
		conf:      conf,
		logger:    logger,
		mailSvc:   mailSvc,
		cardSvc:   cardSvc,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the daily run and returns immediately.
func (svc *Service) Start() error {
	at := fmt.Sprintf("%02d:00", svc.conf.Reminder.Hour)
	if _, err := svc.scheduler.Every(1).Day().At(at).Do(svc.Run); err != nil {
		return err
	}
	svc.scheduler.StartAsync()
	svc.logger.Info(fmt.Sprintf("review reminders scheduled daily at %s UTC", at))
	return nil
}

func (svc *Service) Stop() {
	svc.scheduler.Stop()
}

// Run sends one reminder email per learner with cards due. Exported so the
// admin CLI can trigger it out of schedule.
func (svc *Service) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	summaries, err := svc.cardSvc.DueSummaries(ctx, time.Now())
	if err != nil {
		svc.logger.Error(fmt.Sprintf("querying due summaries: %v", err), err)
		return
	}

	messages := make([]*core.EmailMessage, 0, len(summaries))
	for _, summary := range summaries {
		if summary.Email == "" {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: summary.Name, Address: summary.Email}},
			Subject:      "Your flashcards are ready for review",
			TemplateName: "flashcards-due",
			TemplateData: struct {
				Name     string
				DueCount int
			}{summary.Name, summary.DueCount},
		})
	}
	if len(messages) == 0 {
		return
	}
	svc.mailSvc.SendMessages(messages...)
	svc.logger.Info(fmt.Sprintf("sent %d review reminders", len(messages)))
}
