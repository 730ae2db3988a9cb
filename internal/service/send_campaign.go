package service

import (
	"context"
	"fmt"
	"log"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/mailer"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/personalize"
	"github.com/unclebandit/emailcraft-backend/internal/queue"
)

const deliveryFailedMessage = "Failed to send email"

// SendCampaign generates one email per contact and delivers them one at a time.
// It fails before writing any log row when the campaign is unknown or there are no contacts.
// Once the batch has started, per-recipient failures are recorded and the loop keeps going.
func (s *CampaignService) SendCampaign(ctx context.Context, campaignID int) (*SendResult, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	contacts, err := s.ContactRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	if len(contacts) == 0 {
		return nil, appErrors.NewValidation("No contacts found")
	}

	release, err := s.guard().Acquire(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer release()

	// a started batch runs to the end even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	log.Printf("📩 Sending campaign %d to %d contacts", campaignID, len(contacts))
	emails := s.Personalizer.GenerateMany(ctx, contacts, campaign.Prompt)

	n := min(len(emails), len(contacts))
	outcomes := make([]DeliveryOutcome, 0, n)
	for i := 0; i < n; i++ {
		outcomes = append(outcomes, s.deliver(ctx, campaignID, contacts[i], emails[i]))
	}

	if err := s.CampaignRepo.UpdateStatus(ctx, campaignID, model.CampaignStatusCompleted); err != nil {
		log.Printf("⚠️ Failed to mark campaign %d completed: %v", campaignID, err)
	}

	result := Summarize(outcomes)
	log.Printf("✅ Campaign %d sent: total=%d successful=%d failed=%d", campaignID, result.Total, result.Successful, result.Failed)
	s.publishCompleted(campaignID, result)
	return &result, nil
}

func (s *CampaignService) deliver(ctx context.Context, campaignID int, contact model.Contact, email personalize.Email) DeliveryOutcome {
	outcome := DeliveryOutcome{ContactID: contact.ID, Email: contact.Email}

	entry := model.NewPendingEmailLog(campaignID, contact.ID, email.Subject, email.Content)
	if err := s.LogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to create email log for %s: %v", contact.Email, err)
		emailsTotal.WithLabelValues(model.EmailStatusFailed).Inc()
		outcome.Error = err.Error()
		return outcome
	}

	if s.Mailer.Send(ctx, contact.Email, email.Subject, email.Content, mailer.TextToHTML(email.Content)) {
		entry.MarkSent(s.now())
	} else {
		entry.MarkFailed(deliveryFailedMessage)
	}

	if err := s.LogRepo.Update(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to update email log %d: %v", entry.ID, err)
		emailsTotal.WithLabelValues(model.EmailStatusFailed).Inc()
		outcome.Error = err.Error()
		return outcome
	}

	emailsTotal.WithLabelValues(entry.Status).Inc()
	outcome.Success = entry.Status == model.EmailStatusSent
	if !outcome.Success {
		outcome.Error = deliveryFailedMessage
	}
	return outcome
}

func (s *CampaignService) publishCompleted(campaignID int, result SendResult) {
	if s.Queue == nil {
		return
	}
	evt := queue.Event{
		Type:       queue.TopicCampaignCompleted,
		CampaignID: campaignID,
		Total:      result.Total,
		Successful: result.Successful,
		Failed:     result.Failed,
		OccurredAt: s.now(),
	}
	if err := s.Queue.Publish(queue.TopicCampaignCompleted, evt); err != nil {
		log.Printf("⚠️ Failed to publish %s for campaign %d: %v", evt.Type, campaignID, err)
	}
}
