package domain

import "fmt"

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusPaid        Status = "PAID"
	StatusCancelled   Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusApproved, StatusRejected, StatusCancelled},
	StatusUnderReview: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:    {StatusPaid},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Cancellable reports whether the owner may still withdraw the claim.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusUnderReview
}

// TransitionTo checks a single status move. Cancelling from a non-cancellable
// state yields ErrInvalidState, any other illegal move ErrInvalidTransition.
func (s Status) TransitionTo(next Status) error {
	if next == StatusCancelled && !s.Cancellable() {
		return &TransitionError{From: s, To: next, Err: ErrInvalidState}
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return nil
		}
	}
	return &TransitionError{From: s, To: next, Err: ErrInvalidTransition}
}

// Label is the default English display text; translations live outside this service.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusUnderReview:
		return "Under review"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusPaid:
		return "Paid"
	case StatusCancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("Unknown (%s)", string(s))
}

type Category string

const (
	CategoryTravel        Category = "TRAVEL"
	CategoryMeals         Category = "MEALS"
	CategorySupplies      Category = "SUPPLIES"
	CategoryEquipment     Category = "EQUIPMENT"
	CategorySoftware      Category = "SOFTWARE"
	CategoryTraining      Category = "TRAINING"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryUtilities     Category = "UTILITIES"
	CategoryOther         Category = "OTHER"
)

var categoryLabels = map[Category]string{
	CategoryTravel:        "Business travel",
	CategoryMeals:         "Meals & drinks",
	CategorySupplies:      "Office supplies",
	CategoryEquipment:     "Equipment",
	CategorySoftware:      "Software & licences",
	CategoryTraining:      "Training & certification",
	CategoryEntertainment: "Client entertainment",
	CategoryUtilities:     "Utilities",
	CategoryOther:         "Other",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryTravel, CategoryMeals, CategorySupplies, CategoryEquipment, CategorySoftware,
		CategoryTraining, CategoryEntertainment, CategoryUtilities, CategoryOther,
	}
}
