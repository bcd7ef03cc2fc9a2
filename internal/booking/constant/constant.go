package constant

const (
	EMOJI_CALENDAR   = "\U0001F5D3"    //🗓
	EMOJI_DOCTOR     = "\U0001F468‍⚕️" //👨‍⚕️
	EMOJI_BRIEFCASE  = "\U0001F4BC"    //💼
	EMOJI_USER       = "\U0001F464"    //👤
	EMOJI_PHONE      = "\U0001F4DE"    //📞
	EMOJI_ID         = "\U0001F194"    //🆔
	EMOJI_CHECK      = "✅"             //✅
	EMOJI_CROSS      = "❌"             //❌
	EMOJI_CROSS_MARK = "❎"             //❎
	EMOJI_QUESTION   = "❓"             //❓
	EMOJI_INFO       = "ℹ️"            //ℹ️
	EMOJI_CLOCK      = "⏰"             //⏰
	EMOJI_DATE       = "\U0001F4C5"    //📅
	EMOJI_FOLDER     = "\U0001F5C2"    //🗂
	EMOJI_MEMO       = "\U0001F4DD"    //📝
	EMOJI_WARNING    = "⚠️"            //⚠️

	BUTTON_TEXT_MY_RECORDS     = EMOJI_FOLDER + " Мои записи"
	BUTTON_TEXT_NEW_RECORD     = EMOJI_MEMO + " Новая запись"
	BUTTON_TEXT_CANCEL_RECORD  = EMOJI_CROSS + " Отмена записи"
	BUTTON_TEXT_YES            = "Да"
	BUTTON_TEXT_NO             = "Нет"
	BUTTON_TEXT_PREV_PAGE      = "<< Назад"
	BUTTON_TEXT_NEXT_PAGE      = "Вперед >>"
	BUTTON_TEXT_MY_RECORDS_RAW = "Мои записи"
	BUTTON_TEXT_NEW_RAW        = "Новая запись"
	BUTTON_TEXT_CANCEL_RAW     = "Отмена записи"

	COMMAND_START   = "/start"
	COMMAND_ADD     = "/add"
	COMMAND_MY      = "/my"
	COMMAND_CANCEL  = "/cancel"
	COMMAND_REFRESH = "/refresh" // только для администраторов
)

// Тексты сообщений бота
const (
	MSG_MENU = EMOJI_USER + " <b>Личный кабинет</b>:\n" +
		EMOJI_FOLDER + " <b>Мои записи</b>\n" +
		EMOJI_MEMO + " <b>Новая запись</b>\n" +
		EMOJI_CROSS + " <b>Отмена записи</b>"
	MSG_MENU_HINT = "Выберите действие в меню " + EMOJI_USER

	MSG_CONFIRM_CREATE_TITLE = EMOJI_QUESTION + " <b>Точно хотите создать запись?</b>"
	MSG_RECORD_CREATED_TITLE = EMOJI_CHECK + " <b>Запись создана!</b>"
	MSG_CONFIRM_CANCEL_TITLE = EMOJI_QUESTION + " <b>Точно хотите отменить запись?</b>"
	MSG_MY_RECORDS_TITLE     = EMOJI_FOLDER + " <b>Ваши записи:</b>"
	MSG_PAGE                 = "Страница %d из %d"

	MSG_SELECT_COOPERATOR      = EMOJI_DOCTOR + " Выберите сотрудника:"
	MSG_NO_COOPERATORS         = "Нет доступных сотрудников для записи."
	MSG_WRONG_COOPERATOR       = "Пожалуйста, выберите сотрудника из списка."
	MSG_NO_SERVICES            = "У этого сотрудника нет доступных услуг. Выберите другого сотрудника."
	MSG_SELECT_SERVICE         = EMOJI_BRIEFCASE + " Выберите услугу:"
	MSG_WRONG_SERVICE          = "Пожалуйста, выберите услугу из списка."
	MSG_NO_DATES               = "Нет доступных дат для записи."
	MSG_SELECT_DATE            = EMOJI_DATE + " Выберите дату:"
	MSG_WRONG_DATE             = "Пожалуйста, выберите дату из списка."
	MSG_NO_TIME                = "Нет доступного времени на эту дату."
	MSG_ENTER_TIME             = EMOJI_CLOCK + " Введите время в формате ЧЧ:ММ (например, 12:30).\nДоступно:\n"
	MSG_WRONG_TIME_FORMAT      = "Введите время в формате ЧЧ:ММ, например 12:30."
	MSG_TIME_UNAVAILABLE       = "Это время недоступно для записи. Доступные варианты:\n"
	MSG_SERVICE_TOO_LATE       = "Услуга не успеет завершиться до конца рабочего дня (%s)."
	MSG_ENTER_NAME             = EMOJI_USER + " Введите имя:"
	MSG_EMPTY_NAME             = "Имя не может быть пустым. Введите имя:"
	MSG_ENTER_PHONE            = EMOJI_PHONE + " Введите номер телефона:"
	MSG_WRONG_PHONE            = "Введите номер телефона в формате +79000000000, 79000000000, 89000000000 или 9000000000."
	MSG_ALREADY_BOOKED         = "У вас уже есть запись на это время."
	MSG_ENTER_CODE             = "Введите код из SMS для подтверждения записи:"
	MSG_SMS_FAILED             = "Ошибка отправки SMS. Попробуйте позже."
	MSG_WRONG_CODE             = "Неверный код. Попробуйте ещё раз."
	MSG_CODE_ATTEMPTS_EXCEEDED = "Превышено количество попыток ввода кода. Начните запись заново."
	MSG_ANSWER_YES_NO          = "Пожалуйста, ответьте «Да» или «Нет»."
	MSG_RECORD_DISCARDED       = EMOJI_CROSS_MARK + " Запись отменена."
	MSG_SAVE_FAILED            = EMOJI_CROSS + " Не удалось сохранить запись. Попробуйте позже."
	MSG_GENERIC_ERROR          = EMOJI_CROSS + " Произошла ошибка. Попробуйте позже."
	MSG_SCHEDULE_UNAVAILABLE   = EMOJI_WARNING + " Сервис записи временно недоступен. Попробуйте позже."
	MSG_DIRECTORY_UNAVAILABLE  = EMOJI_WARNING + " Список сотрудников временно недоступен. Попробуйте позже."
	MSG_PROVIDER_REJECTED      = EMOJI_CROSS + " Ошибка: %s"
	MSG_PROVIDER_UNREACHABLE   = EMOJI_CROSS + " Ошибка: не удалось связаться с сервером Rubitime. Попробуйте позже."
	MSG_PROVIDER_TIMEOUT       = EMOJI_CROSS + " Ошибка: превышено время ожидания ответа от Rubitime."
	MSG_CANCEL_REJECTED        = EMOJI_CROSS + " Ошибка отмены записи: %s"

	MSG_NO_RECORDS           = EMOJI_INFO + " У вас нет записей."
	MSG_NO_RECORDS_TO_CANCEL = EMOJI_INFO + " У вас нет записей для отмены."
	MSG_SELECT_TO_CANCEL     = EMOJI_CROSS + " Выберите запись для отмены:"
	MSG_WRONG_RECORD         = "Пожалуйста, выберите запись из списка."
	MSG_RECORD_CANCELLED     = EMOJI_CHECK + " Запись успешно отменена."
	MSG_CANCEL_ABORTED       = EMOJI_CROSS_MARK + " Отмена отмены записи."

	MSG_DIRECTORY_REFRESHED = "\U0001F504 Справочник обновлён, сотрудников: %d."

	MSG_REMINDER_24H = EMOJI_CLOCK + " Напоминание: ваша запись на %s через 24 часа."
	MSG_REMINDER_12H = EMOJI_CLOCK + " Напоминание: ваша запись на %s через 12 часов."

	SMS_CONFIRMATION_TEMPLATE = "Ваш код подтверждения: %s"
)
