package notify

import (
	"context"
	"fmt"
	"time"
)

// Notification is one outbound mail request. Reason is the event that
// produced it, kept for logging and consumer-side metrics.
type Notification struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Reason  string `json:"reason"`
}

const (
	ReasonConfirmed     = "order_item_confirmed"
	ReasonCanceled      = "order_item_canceled"
	ReasonNonReturnable = "order_item_non_returnable"
	ReasonReminder      = "return_date_reminder"
	ReasonContact       = "contact_message"
	ReasonContactReply  = "contact_reply"
)

const statusSubject = "Status notification from SE LAB"

// Dispatcher hands a notification to the outbound channel. Delivery is
// best effort; a failed dispatch must never fail the caller's persisted
// state, so callers log the returned error and move on.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

func Confirmed(to, userName, itemName string, borrowingDate *time.Time) Notification {
	bd := "N/A"
	if borrowingDate != nil {
		bd = borrowingDate.Format("01/02/2006")
	}
	return Notification{
		To: to, Name: userName, Subject: statusSubject, Reason: ReasonConfirmed,
		Body: fmt.Sprintf("Dear %s,\n\nYour request for the %s has been confirmed!\n\nBorrowing Date: %s\n\nThank you.",
			userName, itemName, bd),
	}
}

func Canceled(to, userName, itemName string) Notification {
	return Notification{
		To: to, Name: userName, Subject: statusSubject, Reason: ReasonCanceled,
		Body: fmt.Sprintf("Dear %s,\n\nYour request has been canceled.\n\nProduct name: %s\n\nIf you have any questions, please contact us.",
			userName, itemName),
	}
}

func NonReturnable(to, userName, itemName string) Notification {
	return Notification{
		To: to, Name: userName, Subject: statusSubject, Reason: ReasonNonReturnable,
		Body: fmt.Sprintf("Dear %s,\n\nThe item %s is now marked as non-returnable.\n\nNo return date is applicable.\n\nThank you.",
			userName, itemName),
	}
}

func ReturnReminder(to, userName, itemName string, returnDate time.Time) Notification {
	return Notification{
		To: to, Name: userName, Subject: "Return Date Reminder", Reason: ReasonReminder,
		Body: fmt.Sprintf("Dear %s,\n\nThis is a reminder that the return date for your borrowed item '%s' is approaching on: %s.\n\nPlease ensure that you return the items on time.\n\nThank you!",
			userName, itemName, returnDate.Format("01/02/2006")),
	}
}

func ContactReceived(adminEmail, senderName, senderEmail, message string) Notification {
	return Notification{
		To: adminEmail, Name: "Admin", Subject: "New Contact Form Submission", Reason: ReasonContact,
		Body: fmt.Sprintf("Sender Information:\nName: %s\nEmail: %s\n\nMessage Content:\n%s",
			senderName, senderEmail, message),
	}
}

func ContactReply(to, userName, reply string) Notification {
	return Notification{
		To: to, Name: userName, Subject: "Reply from SE LAB", Reason: ReasonContactReply,
		Body: fmt.Sprintf("Dear %s,\n\n%s\n\nThank you.", userName, reply),
	}
}
