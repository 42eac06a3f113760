package notification

import (
	"context"
	"fmt"

	"dialer_backend/internal/events"
	leaddomain "dialer_backend/internal/leads/domain"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
)

// Sender delivers notification emails. Satisfied by *SMTPSender.
type Sender interface {
	SendHotLeadEmail(ctx context.Context, toEmail string, data HotLeadEmailData) error
	SendMeetingBookedEmail(ctx context.Context, toEmail string, data MeetingBookedEmailData) error
}

// TenantSettings supplies the notification address. Satisfied by
// *Repository.
type TenantSettings interface {
	NotificationEmail(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// LeadReader supplies lead details for the email body.
type LeadReader interface {
	GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (leaddomain.Lead, error)
}

// Service turns domain events into tenant notification emails: hot leads
// and booked meetings only, everything else is noise.
type Service struct {
	sender  Sender
	tenants TenantSettings
	leads   LeadReader
	log     *logger.Logger
}

// NewService creates a new notification service.
func NewService(sender Sender, tenants TenantSettings, leads LeadReader, log *logger.Logger) *Service {
	return &Service{
		sender:  sender,
		tenants: tenants,
		leads:   leads,
		log:     log,
	}
}

// Subscribe registers the service's event handlers on the bus.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadQualified{}.EventName(), events.HandlerFunc(s.handleLeadQualified))
	bus.Subscribe(events.MeetingBooked{}.EventName(), events.HandlerFunc(s.handleMeetingBooked))
}

func (s *Service) handleLeadQualified(ctx context.Context, event events.Event) error {
	qualified, ok := event.(events.LeadQualified)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if qualified.Score != leaddomain.ScoreHot {
		return nil
	}

	toEmail, lead, ok := s.recipientAndLead(ctx, qualified.TenantID, qualified.LeadID)
	if !ok {
		return nil
	}

	return s.sender.SendHotLeadEmail(ctx, toEmail, HotLeadEmailData{
		ContactName:  lead.ContactName,
		BusinessName: lead.BusinessName,
		Phone:        lead.Phone,
		Summary:      qualified.Summary,
	})
}

func (s *Service) handleMeetingBooked(ctx context.Context, event events.Event) error {
	booked, ok := event.(events.MeetingBooked)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	toEmail, lead, ok := s.recipientAndLead(ctx, booked.TenantID, booked.LeadID)
	if !ok {
		return nil
	}

	return s.sender.SendMeetingBookedEmail(ctx, toEmail, MeetingBookedEmailData{
		ContactName:  lead.ContactName,
		BusinessName: lead.BusinessName,
		Summary:      booked.Summary,
	})
}

// recipientAndLead loads the address and lead, reporting ok=false when
// the tenant has no notification address configured.
func (s *Service) recipientAndLead(ctx context.Context, tenantID, leadID uuid.UUID) (string, leaddomain.Lead, bool) {
	toEmail, err := s.tenants.NotificationEmail(ctx, tenantID)
	if err != nil {
		s.log.Error("failed to load notification email", "error", err, "tenantId", tenantID)
		return "", leaddomain.Lead{}, false
	}
	if toEmail == "" {
		return "", leaddomain.Lead{}, false
	}

	lead, err := s.leads.GetByID(ctx, tenantID, leadID)
	if err != nil {
		s.log.Warn("notification lead lookup failed", "error", err, "leadId", leadID)
		lead = leaddomain.Lead{}
	}
	return toEmail, lead, true
}
