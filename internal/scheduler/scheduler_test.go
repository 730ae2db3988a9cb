package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

type fakeCampaigns struct {
	due      []*model.Campaign
	listErr  error
	statuses map[int]string
	asked    time.Time
}

func (f *fakeCampaigns) ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	f.asked = now
	return f.due, f.listErr
}

func (f *fakeCampaigns) UpdateStatus(ctx context.Context, id int, status string) error {
	f.statuses[id] = status
	return nil
}

type fakeSender struct {
	errs map[int]error
	sent []int
}

func (f *fakeSender) SendCampaign(ctx context.Context, id int) (*service.SendResult, error) {
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, id)
	return &service.SendResult{Total: 1, Successful: 1}, nil
}

func TestRunDue(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	campaigns := &fakeCampaigns{
		due:      []*model.Campaign{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
		statuses: map[int]string{},
	}
	sender := &fakeSender{errs: map[int]error{
		2: appErrors.NewValidation("No contacts found"),
		3: appErrors.NewConflict("busy"),
		4: errors.New("boom"),
	}}
	s := NewScheduler(campaigns, sender)
	s.now = func() time.Time { return now }

	n := s.RunDue(context.Background())

	assert.Equal(t, 1, n)
	assert.Equal(t, now, campaigns.asked)
	assert.Equal(t, []int{1}, sender.sent)
	assert.Equal(t, map[int]string{2: model.CampaignStatusFailed}, campaigns.statuses)
}

func TestRunDueListError(t *testing.T) {
	campaigns := &fakeCampaigns{listErr: errors.New("db down"), statuses: map[int]string{}}
	sender := &fakeSender{}

	assert.Zero(t, NewScheduler(campaigns, sender).RunDue(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&fakeCampaigns{}, &fakeSender{})
	assert.Error(t, s.Start("every now and then"))
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&fakeCampaigns{statuses: map[int]string{}}, &fakeSender{})
	assert.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
