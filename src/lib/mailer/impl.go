package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"ers/src/db"
	"ers/src/lib"
	"ers/src/models"
	"ers/src/types"
)

var subjects = map[types.NotificationKind]string{
	types.NOTIFY_REGISTRATION_PENDING:   "Your registration is reserved, complete the payment",
	types.NOTIFY_REGISTRATION_CONFIRMED: "Registration confirmed",
	types.NOTIFY_REGISTRATION_CANCELED:  "Registration canceled",
	types.NOTIFY_REGISTRATION_EXPIRED:   "Registration expired, please register again",
	types.NOTIFY_WAITLIST_JOINED:        "You joined the waitlist",
	types.NOTIFY_WAITLIST_PROMOTED:      "A slot opened up for you",
	types.NOTIFY_TRANSFER_RECEIVED:      "You received a ticket transfer request",
	types.NOTIFY_TRANSFER_ACCEPTED:      "Ticket transfer accepted",
	types.NOTIFY_TRANSFER_DENIED:        "Ticket transfer denied",
	types.NOTIFY_CHECKIN_COMPLETED:      "Checked in, enjoy the event",
}

// MailSink delivers state-transition notifications over SMTP and keeps an
// audit row per delivery. Failures are the caller's to swallow: a lost email
// never rolls back the transition that triggered it.
type MailSink struct{}

func (s *MailSink) Notify(ctx context.Context, userID uint, kind types.NotificationKind, payload types.JSONB) error {
	subject, ok := subjects[kind]
	if !ok {
		subject = string(kind)
	}

	conn := db.GetDb()
	notification := models.Notification{
		UserID:  userID,
		Kind:    kind,
		Title:   subject,
		Payload: &payload,
	}
	if err := conn.WithContext(ctx).Create(&notification).Error; err != nil {
		log.Printf("Error writing notification audit row: %s\n", err.Error())
	}

	var user models.User
	if err := conn.WithContext(ctx).Where(&models.User{ID: userID}).First(&user).Error; err != nil {
		return err
	}
	body, _ := json.MarshalIndent(payload, "", "  ")
	return lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("MAIL_FROM"),
		FromName: os.Getenv("MAIL_FROM_NAME"),
		To:       []string{user.Email},
		Subject:  subject,
		Body:     fmt.Sprintf("Hi %s,\n\n%s\n\n%s\n", user.Name, subject, string(body)),
	})
}
