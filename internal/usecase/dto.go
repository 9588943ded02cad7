package usecase

import "github.com/xavierca1/ligue-funnels/internal/entity"

// Outcome is the machine readable result of a webhook delivery. Every value
// except the error paths is a normal 200 response.
type Outcome string

const (
	OutcomeEnrolled           Outcome = "enrolled"
	OutcomeSettled            Outcome = "settled"
	OutcomeSuspended          Outcome = "ignored_suspended"
	OutcomeEventNotRegistered Outcome = "ignored_event_not_registered"
	OutcomeEventNotActivated  Outcome = "ignored_event_not_activated"
	OutcomeDuplicateLead      Outcome = "ignored_duplicate_lead"
	OutcomeOrphanSale         Outcome = "ignored_orphan_sale"
	OutcomeDuplicateDelivery  Outcome = "ignored_duplicate_delivery"
	OutcomeNotSale            Outcome = "ignored_not_sale"
	OutcomeLicenseExists      Outcome = "ignored_license_exists"
	OutcomeUserExists         Outcome = "ignored_user_exists"
	OutcomeLicenseCreated     Outcome = "license_created"
)

var outcomeMessages = map[Outcome]string{
	OutcomeEnrolled:           "Lead successfully introduced into funnel conversion",
	OutcomeSettled:            "Recovered lead successfully processed",
	OutcomeSuspended:          "Funnel suspended",
	OutcomeEventNotRegistered: "Event not registered",
	OutcomeEventNotActivated:  "Event not included",
	OutcomeDuplicateLead:      "Lead is already in remarketing",
	OutcomeOrphanSale:         "Converted lead was not from funnel conversion",
	OutcomeDuplicateDelivery:  "Webhook already received",
	OutcomeNotSale:            "Invalid event type",
	OutcomeLicenseExists:      "License already exists",
	OutcomeUserExists:         "User already exists",
	OutcomeLicenseCreated:     "User created successfully",
}

func (o Outcome) Message() string {
	return outcomeMessages[o]
}

func (o Outcome) Ignored() bool {
	switch o {
	case OutcomeEnrolled, OutcomeSettled, OutcomeLicenseCreated:
		return false
	}
	return true
}

type ProcessWebhookInput struct {
	UID  string
	FID  string
	Body []byte
}

type ProcessWebhookOutput struct {
	Outcome          Outcome `json:"code"`
	Message          string  `json:"message"`
	Phone            string  `json:"phone,omitempty"`
	WorkersScheduled int     `json:"workers_scheduled,omitempty"`
	WorkersCancelled int64   `json:"workers_cancelled,omitempty"`
}

func output(o Outcome) *ProcessWebhookOutput {
	return &ProcessWebhookOutput{Outcome: o, Message: o.Message()}
}

type MultiShotInput struct {
	UID   string        `json:"-"`
	FID   string        `json:"-"`
	Leads []entity.Lead `json:"leads"`
	// Delay em segundos entre o início de cada lead
	Delay int64 `json:"delay"`
}

type MultiShotOutput struct {
	Enrolled int      `json:"enrolled"`
	Skipped  int      `json:"skipped"`
	Invalid  []string `json:"invalid,omitempty"`
}

type RemoveLeadInput struct {
	UID   string
	FID   string
	Phone string
}

type RemoveLeadOutput struct {
	Removed          bool   `json:"removed"`
	Phone            string `json:"phone"`
	WorkersCancelled int64  `json:"workers_cancelled"`
}

type ProvisionLicenseOutput struct {
	Outcome Outcome `json:"code"`
	Message string  `json:"message"`
}

// SaveFunnelInput creates a funnel when ID is empty and updates it otherwise.
type SaveFunnelInput struct {
	ID      string              `json:"id,omitempty"`
	UID     string              `json:"userId" validate:"required"`
	Name    string              `json:"name" validate:"required,max=120"`
	Gateway entity.Gateway      `json:"gateway" validate:"required"`
	Events  []entity.Event      `json:"events" validate:"min=1"`
	Status  entity.FunnelStatus `json:"status,omitempty" validate:"omitempty,oneof=active suspended"`
	Shoots  []entity.Shoot      `json:"shoots" validate:"min=1,dive"`
}

type SaveFunnelOutput struct {
	Created  bool   `json:"created,omitempty"`
	Updated  bool   `json:"updated,omitempty"`
	FunnelID string `json:"funnelId"`
}

type DeleteFunnelOutput struct {
	Deleted          bool   `json:"deleted"`
	FunnelID         string `json:"funnelId"`
	WorkersCancelled int64  `json:"workers_cancelled"`
}

type CreateUserInput struct {
	ID    string `json:"userId,omitempty"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty" validate:"max=120"`
}

type CreateUserOutput struct {
	Created bool   `json:"created"`
	UserID  string `json:"userId"`
}

type UserExistsOutput struct {
	UserExists bool         `json:"userExists"`
	UserID     string       `json:"userId,omitempty"`
	User       *entity.User `json:"user,omitempty"`
}
