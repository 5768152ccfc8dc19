// Package notify wraps the Twilio API for outbound shipment notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender is the outbound notification contract used by the API layer.
type Sender interface {
	SendShipmentUpdate(ctx context.Context, to, orderID, carrier, trackingNo string) error
}

// Opts holds configuration options for the Twilio client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option defines a configuration option for the Twilio client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID explicitly.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token explicitly.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number explicitly.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// Client sends SMS notifications through the Twilio REST API.
type Client struct {
	client     *twilio.RestClient
	fromNumber string
}

// NewClient creates a Twilio notification client, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables for options not provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Client{client: client, fromNumber: cfg.FromNumber}, nil
}

// SendShipmentUpdate sends the shipment SMS for an order.
func (c *Client) SendShipmentUpdate(ctx context.Context, to, orderID, carrier, trackingNo string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.fromNumber)
	params.SetBody(shipmentMessage(orderID, carrier, trackingNo))

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio SendShipmentUpdate failed", "error", err, "order_id", orderID)
		return fmt.Errorf("failed to send shipment notification for order %s: %w", orderID, err)
	}
	slog.Info("Shipment notification sent", "order_id", orderID, "to_set", to != "")
	return nil
}

// shipmentMessage builds the SMS body for a shipment update.
func shipmentMessage(orderID, carrier, trackingNo string) string {
	if carrier != "" {
		return fmt.Sprintf("FeiTime Coffee：您的訂單 %s 已出貨！%s 追蹤碼 %s，感謝您的訂購 ☕", orderID, carrier, trackingNo)
	}
	return fmt.Sprintf("FeiTime Coffee：您的訂單 %s 已出貨！追蹤碼 %s，感謝您的訂購 ☕", orderID, trackingNo)
}
