package gateway

import (
	"context"
	"fmt"
	"strings"

	"opd-queue/pkg/utils"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// messageCreator is the slice of the Twilio REST API used for SMS.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioSMS struct {
	api         messageCreator
	from        string
	countryCode string
	log         *zap.Logger
}

func NewTwilioSMS(config utils.TwilioConfig, log *zap.Logger) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})

	return &TwilioSMS{
		api:         client.Api,
		from:        config.From,
		countryCode: config.CountryCode,
		log:         log.With(zap.String("gateway", "twilio_sms")),
	}
}

// E164 prefixes local ten digit numbers with the configured country code.
func (s *TwilioSMS) E164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return s.countryCode + phone
}

func (s *TwilioSMS) Send(ctx context.Context, phone, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(s.E164(phone))
	params.SetBody(text)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.log.Error("Failed to send SMS",
			zap.Error(err),
			zap.String("phone_number", phone),
		)
		return fmt.Errorf("send sms to %s: %w", phone, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.log.Info("SMS sent", zap.String("sid", sid))
	return nil
}

// LogSMS writes messages to the log instead of sending them.
type LogSMS struct {
	log *zap.Logger
}

func NewLogSMS(log *zap.Logger) *LogSMS {
	return &LogSMS{log: log.With(zap.String("gateway", "log_sms"))}
}

func (s *LogSMS) Send(_ context.Context, phone, text string) error {
	s.log.Debug("SMS", zap.String("phone_number", phone), zap.String("text", text))
	return nil
}
