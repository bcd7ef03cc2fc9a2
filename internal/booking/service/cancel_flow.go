package service

import (
	"context"

	"github.com/DenisKhanov/BookingBot/internal/booking/constant"
	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/DenisKhanov/BookingBot/internal/booking/session"
	"github.com/sirupsen/logrus"
)

func (b *BookingBot) listRecords(ctx context.Context, userID int64) (session.State, []models.Reply) {
	list, err := b.reservations.FindByUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list reservations of user %d", userID)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_GENERIC_ERROR)}
	}
	if len(list) == 0 {
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_NO_RECORDS)}
	}
	return session.Idle{}, []models.Reply{recordsReply(list, b.opts.Location)}
}

func (b *BookingBot) startCancel(ctx context.Context, userID int64) (session.State, []models.Reply) {
	list, err := b.reservations.FindByUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list reservations of user %d", userID)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_GENERIC_ERROR)}
	}
	if len(list) == 0 {
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_NO_RECORDS_TO_CANCEL)}
	}
	return session.Cancelling{Reservations: list}, []models.Reply{cancelListReply(list, b.opts.Location)}
}

func (b *BookingBot) selectCancel(st session.Cancelling, input string) (session.State, []models.Reply) {
	id, ok := parseOptionID(input)
	if ok {
		for _, r := range st.Reservations {
			if r.ID == id {
				return session.ConfirmingCancel{Reservation: r}, []models.Reply{confirmCancelReply(r, b.opts.Location)}
			}
		}
	}
	reply := cancelListReply(st.Reservations, b.opts.Location)
	reply.Text = constant.MSG_WRONG_RECORD
	return st, []models.Reply{reply}
}

// confirmCancel removes the record at the provider first; the local row is deleted only after that succeeded.
func (b *BookingBot) confirmCancel(ctx context.Context, st session.ConfirmingCancel, input string) (session.State, []models.Reply) {
	switch input {
	case constant.BUTTON_TEXT_NO:
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_CANCEL_ABORTED)}
	case constant.BUTTON_TEXT_YES:
	default:
		return st, []models.Reply{{Text: constant.MSG_ANSWER_YES_NO, Keyboard: yesNoKeyboard()}}
	}

	r := st.Reservation
	if r.HasProviderID() {
		if err := b.schedule.RemoveRecord(ctx, *r.ProviderID); err != nil {
			logrus.WithError(err).Errorf("Failed to remove record %d of reservation %d", *r.ProviderID, r.ID)
			return session.Idle{}, []models.Reply{withMenu(providerFailureText(err, constant.MSG_CANCEL_REJECTED))}
		}
	}
	if err := b.reservations.Delete(ctx, r.ID); err != nil {
		logrus.WithError(err).Errorf("Failed to delete reservation %d", r.ID)
		return session.Idle{}, []models.Reply{withMenu(constant.MSG_GENERIC_ERROR)}
	}

	logrus.Infof("Reservation %d of user %d cancelled", r.ID, r.UserID)
	return session.Idle{}, []models.Reply{withMenu(constant.MSG_RECORD_CANCELLED)}
}
