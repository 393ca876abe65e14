package services

type wsNotify struct {
	NotifyType string `json:"notify_type"`
	Message    string `json:"message"`
}

// SendWsNotify - отправка уведомления через WebSocket напрямую
// (fallback, когда RabbitMQ недоступен)
func SendWsNotify(userID int64, notifyType string, message string) error {
	if len(notifyType) == 0 {
		notifyType = "info"
	}
	if len(message) == 0 {
		return nil
	}
	if len(message) > 100 {
		message = message[:100] + "..."
	}
	GlobalWSConnManager.Send(userID, wsNotify{NotifyType: notifyType, Message: message})
	return nil
}
