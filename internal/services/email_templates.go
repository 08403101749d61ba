package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
)

var approvalTemplate = template.Must(template.New("eventApproved").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #4F46E5; padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">TimeLeft</h1>
  </div>
  <div style="padding: 20px; border: 1px solid #e0e0e0; border-top: none;">
    <h2>Good news, {{.Name}}!</h2>
    <p>The event <strong>{{.Title}}</strong> you joined has been approved.</p>
    <div style="background-color: #f9f9f9; padding: 15px; margin: 20px 0; border-left: 4px solid #4F46E5;">
      <p><strong>Event Details:</strong></p>
      <p><strong>Title:</strong> {{.Title}}</p>
      <p><strong>Date:</strong> {{.Date}}</p>
      <p><strong>Location:</strong> {{.Location}}</p>
      <p><strong>Reveal Date:</strong> {{.RevealDate}}</p>
    </div>
    <p>Participant details will be revealed on {{.RevealDate}}.</p>
    <div style="text-align: center; margin-top: 30px;">
      <a href="{{.Link}}" style="background-color: #4F46E5; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Event Details</a>
    </div>
  </div>
  <div style="text-align: center; padding: 20px; color: #666; font-size: 12px;">
    <p>TimeLeft - Connect with others through meaningful events</p>
    <p>&copy; {{.Year}} TimeLeft. All rights reserved.</p>
  </div>
</div>
`))

const emailDateLayout = "Mon, 02 Jan 2006"

// approvalEmail renders the message sent to each participant of an approved event.
func approvalEmail(event *models.Event, user *models.User, frontendURL string) (Message, error) {
	data := struct {
		Name, Title, Location, Date, RevealDate, Link string
		Year                                          int
	}{
		Name:       user.Name,
		Title:      event.Title,
		Location:   event.Location,
		Date:       event.EventDate.Format(emailDateLayout),
		RevealDate: event.RevealDate.Format(emailDateLayout),
		Link:       fmt.Sprintf("%s/events/%s", frontendURL, event.ID.Hex()),
		Year:       time.Now().Year(),
	}

	var buf bytes.Buffer
	if err := approvalTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("execute template: %w", err)
	}
	return Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Event Approved: %s", event.Title),
		HTML:    buf.String(),
	}, nil
}
