package service

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/constant"
	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/DenisKhanov/BookingBot/internal/booking/session"
)

const timesPerRow = 4

type command int

const (
	cmdNone command = iota
	cmdStart
	cmdNewBooking
	cmdMyRecords
	cmdCancel
	cmdRefresh
)

// Команды и кнопки меню
var commands = map[string]command{
	constant.COMMAND_START:              cmdStart,
	constant.COMMAND_ADD:                cmdNewBooking,
	constant.BUTTON_TEXT_NEW_RECORD:     cmdNewBooking,
	constant.BUTTON_TEXT_NEW_RAW:        cmdNewBooking,
	constant.COMMAND_MY:                 cmdMyRecords,
	constant.BUTTON_TEXT_MY_RECORDS:     cmdMyRecords,
	constant.BUTTON_TEXT_MY_RECORDS_RAW: cmdMyRecords,
	constant.COMMAND_CANCEL:             cmdCancel,
	constant.BUTTON_TEXT_CANCEL_RECORD:  cmdCancel,
	constant.BUTTON_TEXT_CANCEL_RAW:     cmdCancel,
	constant.COMMAND_REFRESH:            cmdRefresh,
}

// parseCommand recognizes slash commands, including the /cmd@botname form, and menu buttons.
func parseCommand(text string) command {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/") {
		if i := strings.IndexAny(text, "@ "); i > 0 {
			text = text[:i]
		}
	}
	return commands[text]
}

func normalizeInput(text string) string {
	return strings.TrimSpace(text)
}

// parseOptionID reads the id of a "<id>: <label>" button. A bare id is accepted too.
func parseOptionID(text string) (int64, bool) {
	if i := strings.Index(text, ":"); i >= 0 {
		text = text[:i]
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func optionLabel(id int64, label string) string {
	return fmt.Sprintf("%d: %s", id, label)
}

func textReply(text string) models.Reply {
	return models.Reply{Text: text}
}

func menuKeyboard() [][]string {
	return [][]string{
		{constant.BUTTON_TEXT_MY_RECORDS},
		{constant.BUTTON_TEXT_NEW_RECORD},
		{constant.BUTTON_TEXT_CANCEL_RECORD},
	}
}

func yesNoKeyboard() [][]string {
	return [][]string{{constant.BUTTON_TEXT_YES, constant.BUTTON_TEXT_NO}}
}

// withMenu ends a flow: the text goes out together with the main menu keyboard.
func withMenu(text string) models.Reply {
	return models.Reply{Text: text, Keyboard: menuKeyboard()}
}

func menuReply() models.Reply {
	return withMenu(constant.MSG_MENU)
}

func menuHintReply() models.Reply {
	return withMenu(constant.MSG_MENU_HINT)
}

func cooperatorsReply(cooperators []models.Cooperator) models.Reply {
	keyboard := make([][]string, 0, len(cooperators))
	for _, c := range cooperators {
		keyboard = append(keyboard, []string{optionLabel(c.ID, c.Name)})
	}
	return models.Reply{Text: constant.MSG_SELECT_COOPERATOR, Keyboard: keyboard}
}

func servicesReply(services []models.Service) models.Reply {
	keyboard := make([][]string, 0, len(services))
	for _, s := range services {
		keyboard = append(keyboard, []string{optionLabel(s.ID, s.Name)})
	}
	return models.Reply{Text: constant.MSG_SELECT_SERVICE, Keyboard: keyboard}
}

// datesReply renders the current page of dates with the navigation buttons that make sense on it.
func datesReply(st session.SelectingDate) models.Reply {
	dates := st.PageDates()
	keyboard := make([][]string, 0, len(dates)+1)
	for _, d := range dates {
		keyboard = append(keyboard, []string{d})
	}

	var nav []string
	if st.HasPrev() {
		nav = append(nav, constant.BUTTON_TEXT_PREV_PAGE)
	}
	if st.HasNext() {
		nav = append(nav, constant.BUTTON_TEXT_NEXT_PAGE)
	}
	if len(nav) > 0 {
		keyboard = append(keyboard, nav)
	}

	text := constant.MSG_SELECT_DATE
	if st.PageCount() > 1 {
		text += "\n" + fmt.Sprintf(constant.MSG_PAGE, st.Page+1, st.PageCount())
	}
	return models.Reply{Text: text, Keyboard: keyboard}
}

func timesReply(times []string) models.Reply {
	var keyboard [][]string
	for i := 0; i < len(times); i += timesPerRow {
		end := i + timesPerRow
		if end > len(times) {
			end = len(times)
		}
		keyboard = append(keyboard, times[i:end])
	}
	return models.Reply{
		Text:     constant.MSG_ENTER_TIME + strings.Join(times, ", "),
		Keyboard: keyboard,
	}
}

// draftSummary lists the booking details. User supplied values are escaped for HTML.
func draftSummary(d session.Draft, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Сотрудник: %s\n", constant.EMOJI_DOCTOR, html.EscapeString(d.Cooperator.Name))
	fmt.Fprintf(&sb, "%s Услуга: %s\n", constant.EMOJI_BRIEFCASE, html.EscapeString(d.Service.Name))
	fmt.Fprintf(&sb, "%s Дата: %s\n", constant.EMOJI_CALENDAR, d.DateTime.In(loc).Format(models.DisplayLayout))
	fmt.Fprintf(&sb, "%s Имя: %s\n", constant.EMOJI_USER, html.EscapeString(d.Name))
	fmt.Fprintf(&sb, "%s Телефон: %s", constant.EMOJI_PHONE, d.Phone)
	return sb.String()
}

func confirmCreateReply(d session.Draft, loc *time.Location) models.Reply {
	return models.Reply{
		Text:     constant.MSG_CONFIRM_CREATE_TITLE + "\n\n" + draftSummary(d, loc),
		Keyboard: yesNoKeyboard(),
	}
}

func createdReply(r models.Reservation, d session.Draft, loc *time.Location) models.Reply {
	text := constant.MSG_RECORD_CREATED_TITLE + "\n\n"
	if r.HasProviderID() {
		text += fmt.Sprintf("%s ID: %d\n", constant.EMOJI_ID, *r.ProviderID)
	}
	return withMenu(text + draftSummary(d, loc))
}

func reservationLine(r models.Reservation, loc *time.Location) string {
	return fmt.Sprintf("%s ID: %d\n%s Дата: %s\n%s Имя: %s\n%s Телефон: %s",
		constant.EMOJI_ID, r.ID,
		constant.EMOJI_CALENDAR, r.DateTime.In(loc).Format(models.DisplayLayout),
		constant.EMOJI_USER, html.EscapeString(r.Name),
		constant.EMOJI_PHONE, r.Phone)
}

func recordsReply(list []models.Reservation, loc *time.Location) models.Reply {
	parts := make([]string, 0, len(list)+1)
	parts = append(parts, constant.MSG_MY_RECORDS_TITLE)
	for _, r := range list {
		parts = append(parts, reservationLine(r, loc))
	}
	return withMenu(strings.Join(parts, "\n\n"))
}

func cancelListReply(list []models.Reservation, loc *time.Location) models.Reply {
	keyboard := make([][]string, 0, len(list))
	for _, r := range list {
		keyboard = append(keyboard, []string{optionLabel(r.ID, r.DateTime.In(loc).Format(models.DisplayLayout))})
	}
	return models.Reply{Text: constant.MSG_SELECT_TO_CANCEL, Keyboard: keyboard}
}

func confirmCancelReply(r models.Reservation, loc *time.Location) models.Reply {
	return models.Reply{
		Text:     constant.MSG_CONFIRM_CANCEL_TITLE + "\n\n" + reservationLine(r, loc),
		Keyboard: yesNoKeyboard(),
	}
}

// providerFailureText turns a provider error into the message shown to the user.
func providerFailureText(err error, rejectedFormat string) string {
	kind, _ := models.ProviderErrorKind(err)
	switch kind {
	case models.KindTimeout:
		return constant.MSG_PROVIDER_TIMEOUT
	case models.KindRejected:
		msg := models.RejectionMessage(err)
		if msg == "" {
			msg = "запрос отклонён"
		}
		return fmt.Sprintf(rejectedFormat, html.EscapeString(msg))
	}
	return constant.MSG_PROVIDER_UNREACHABLE
}
