package storage

import "time"

type OrderStatus string

const (
	OrderToDo           OrderStatus = "TO_DO"
	OrderReadyToBeTaken OrderStatus = "READY_TO_BE_TAKEN"
	OrderInExecution    OrderStatus = "IN_EXECUTION"
	OrderInPause        OrderStatus = "IN_PAUSE"
	OrderInProgress     OrderStatus = "IN_PROGRESS"
	OrderDone           OrderStatus = "DONE"
	OrderCancelled      OrderStatus = "CANCELLED"
)

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderToDo, OrderReadyToBeTaken, OrderInExecution, OrderInPause,
		OrderInProgress, OrderDone, OrderCancelled:
		return true
	}
	return false
}

// ItemStatus doubles as the assignment stage: the production stages plus
// the bookkeeping states share one vocabulary.
type ItemStatus string

const (
	ItemToDo      ItemStatus = "TO_DO"
	ItemGraphics  ItemStatus = "GRAPHICS"
	ItemPrinting  ItemStatus = "PRINTING"
	ItemCutting   ItemStatus = "CUTTING"
	ItemFinishing ItemStatus = "FINISHING"
	ItemPacking   ItemStatus = "PACKING"
	ItemDone      ItemStatus = "DONE"
	ItemStandby   ItemStatus = "STANDBY"
	ItemCancelled ItemStatus = "CANCELLED"
)

func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemToDo, ItemGraphics, ItemPrinting, ItemCutting, ItemFinishing,
		ItemPacking, ItemDone, ItemStandby, ItemCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type ReceivedThrough string

const (
	ReceivedFacebook ReceivedThrough = "FACEBOOK"
	ReceivedWhatsapp ReceivedThrough = "WHATSAPP"
	ReceivedPhone    ReceivedThrough = "PHONE"
	ReceivedInPerson ReceivedThrough = "IN_PERSON"
	ReceivedEmail    ReceivedThrough = "EMAIL"
)

func ValidReceivedThrough(r ReceivedThrough) bool {
	switch r {
	case ReceivedFacebook, ReceivedWhatsapp, ReceivedPhone, ReceivedInPerson, ReceivedEmail:
		return true
	}
	return false
}

// Assignment is one work record per (item, stage). The record is reused
// across re-entries into the same stage: reactivation updates started_at and
// clears completed_at, and the next close overwrites time_spent with the
// duration of the just-finished activation only.
type Assignment struct {
	ID             int64       `json:"-"`
	Stage          ItemStatus  `json:"stage"`
	AssignedTo     *int64      `json:"assigned_to,omitempty"`
	AssignedToName *string     `json:"assigned_to_name,omitempty"`
	StageNotes     string      `json:"stage_notes,omitempty"`
	AssignedAt     time.Time   `json:"assigned_at"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	TimeSpent      *int64      `json:"time_spent,omitempty"` // milliseconds
	IsActive       bool        `json:"is_active"`
}

type OrderItem struct {
	ID                   string       `json:"id"`
	Product              *int64       `json:"product,omitempty"`
	ProductName          *string      `json:"product_name,omitempty"`
	ProductNameSnapshot  string       `json:"product_name_snapshot,omitempty"`
	DescriptionSnapshot  string       `json:"description_snapshot,omitempty"`
	PriceSnapshot        float64      `json:"price_snapshot"`
	Quantity             int          `json:"quantity"`
	ItemStatus           ItemStatus   `json:"item_status"`
	Attachments          []string     `json:"attachments,omitempty"`
	GraphicsImage        *string      `json:"graphics_image,omitempty"`
	FinishedProductImage *string      `json:"finished_product_image,omitempty"`
	TextToPrint          string       `json:"text_to_print,omitempty"`
	DisabledStages       []ItemStatus `json:"disabled_stages,omitempty"`
	Assignments          []Assignment `json:"assignments"`
}

// Order is the root aggregate: items and their assignments are owned and
// persisted with it as one unit.
type Order struct {
	ID                  int64           `json:"id"`
	DueDate             *time.Time      `json:"due_date,omitempty"`
	ReceivedThrough     ReceivedThrough `json:"received_through,omitempty"`
	Status              OrderStatus     `json:"status"`
	Customer            int64           `json:"customer"`
	CustomerName        *string         `json:"customer_name,omitempty"`
	CustomerCompany     *int64          `json:"customer_company,omitempty"`
	CustomerCompanyName *string         `json:"customer_company_name,omitempty"`
	Priority            Priority        `json:"priority"`
	Description         string          `json:"description,omitempty"`
	Items               []OrderItem     `json:"items"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Item returns the item with the given id, or nil.
func (o *Order) Item(itemID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
