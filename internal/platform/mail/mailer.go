package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/platform/config"
)

// Dialer abstracts the SMTP dialer so tests can capture outgoing messages.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer renders and sends transactional order emails over SMTP.
type Mailer struct {
	dialer Dialer
	from   string
}

// MailerOption customises Mailer construction.
type MailerOption func(*Mailer)

// WithDialer injects a custom dialer (primarily for tests).
func WithDialer(dialer Dialer) MailerOption {
	return func(m *Mailer) {
		if dialer != nil {
			m.dialer = dialer
		}
	}
}

// NewMailer constructs a Mailer from SMTP configuration.
func NewMailer(cfg config.SMTPConfig, opts ...MailerOption) (*Mailer, error) {
	mailer := &Mailer{from: strings.TrimSpace(cfg.From)}
	for _, opt := range opts {
		if opt != nil {
			opt(mailer)
		}
	}

	if mailer.from == "" {
		return nil, errors.New("mail: from address is required")
	}
	if mailer.dialer == nil {
		if strings.TrimSpace(cfg.Host) == "" {
			return nil, errors.New("mail: smtp host is required")
		}
		mailer.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}

	return mailer, nil
}

// SendOrderConfirmation emails the customer after an order is placed.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, order domain.Order) error {
	body, err := renderTemplate(confirmationTemplate, confirmationData(order))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Заказ №%s принят — FlowerDream", order.ID)
	return m.send(ctx, order.CreatedBy, subject, body)
}

// SendOrderStatus emails the customer when the order status changes.
func (m *Mailer) SendOrderStatus(ctx context.Context, order domain.Order, notice domain.StatusNotice) error {
	body, err := renderTemplate(statusTemplate, statusData{
		Order:   confirmationData(order),
		Title:   notice.Title,
		Message: notice.Message,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s — заказ №%s", notice.Title, order.ID)
	return m.send(ctx, order.CreatedBy, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m == nil || m.dialer == nil {
		return errors.New("mail: mailer not initialised")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("mail: recipient address is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

type orderData struct {
	ID           string
	Greeting     string
	Items        []itemData
	Total        string
	DeliveryType string
	Address      string
}

type itemData struct {
	Name     string
	Quantity int
	Price    string
}

type statusData struct {
	Order   orderData
	Title   string
	Message string
}

func confirmationData(order domain.Order) orderData {
	items := make([]itemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemData{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    formatPrice(item.Price),
		})
	}
	return orderData{
		ID:           order.ID,
		Greeting:     greetingName(order),
		Items:        items,
		Total:        formatPrice(order.TotalAmount),
		DeliveryType: string(order.DeliveryType),
		Address:      order.DeliveryAddress,
	}
}

// greetingName picks the name for the salutation: the sender placed the
// order, so their name comes first, with the recipient name as a fallback.
func greetingName(order domain.Order) string {
	if name := strings.TrimSpace(order.SenderName); name != "" {
		return name
	}
	return strings.TrimSpace(order.RecipientName)
}

func formatPrice(value float64) string {
	return fmt.Sprintf("%.2f ₽", value)
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render template: %w", err)
	}
	return buf.String(), nil
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="ru">
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: #c2185b;">FlowerDream</h2>
  <p>Здравствуйте{{if .Greeting}}, {{.Greeting}}{{end}}!</p>
  <p>Ваш заказ <strong>№{{.ID}}</strong> принят и скоро будет обработан.</p>
  <table style="border-collapse: collapse; width: 100%;">
    <tr>
      <th style="text-align: left; border-bottom: 1px solid #ddd; padding: 6px;">Товар</th>
      <th style="text-align: right; border-bottom: 1px solid #ddd; padding: 6px;">Кол-во</th>
      <th style="text-align: right; border-bottom: 1px solid #ddd; padding: 6px;">Цена</th>
    </tr>
    {{range .Items}}
    <tr>
      <td style="padding: 6px;">{{.Name}}</td>
      <td style="text-align: right; padding: 6px;">{{.Quantity}}</td>
      <td style="text-align: right; padding: 6px;">{{.Price}}</td>
    </tr>
    {{end}}
  </table>
  <p style="font-size: 16px;"><strong>Итого: {{.Total}}</strong></p>
  {{if .Address}}<p>Адрес доставки: {{.Address}}</p>{{end}}
  <p>Спасибо, что выбрали нас!</p>
</body>
</html>`))

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="ru">
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: #c2185b;">FlowerDream</h2>
  <p>Здравствуйте{{if .Order.Greeting}}, {{.Order.Greeting}}{{end}}!</p>
  <h3>{{.Title}}</h3>
  <p>{{.Message}}</p>
  <p>Заказ <strong>№{{.Order.ID}}</strong>, сумма {{.Order.Total}}.</p>
  <p>Спасибо, что выбрали нас!</p>
</body>
</html>`))
