package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/pkg/models"
)

// ErrNoTarget is returned when neither MQTT nor Home Assistant is enabled.
var ErrNoTarget = errors.New("no publish target enabled")

// Publisher pushes usage summaries to MQTT and/or the Home Assistant HTTP API
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	haConfig    config.HAConfig
	http        *http.Client
	log         *zap.Logger
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, haCfg config.HAConfig, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !mqttCfg.Enabled && !haCfg.Enabled {
		return nil, ErrNoTarget
	}

	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
		if haCfg.EntityID == "" {
			return nil, fmt.Errorf("Home Assistant entity_id is required when enabled")
		}
	}

	p := &Publisher{
		haConfig: haCfg,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log.Named("publisher"),
	}

	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}
		p.topicPrefix = mqttCfg.GetTopicPrefix()

		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID(mqttCfg.GetClientID())
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		p.client = mqtt.NewClient(opts)
		if token := p.client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return p, nil
}

// HAState is the body of a Home Assistant POST /api/states/<entity_id> call
type HAState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// PublishSummary sends the summary to every enabled target. Failures on
// one target do not stop the others; all errors are returned together.
func (p *Publisher) PublishSummary(ctx context.Context, s models.UsageSummary) error {
	var errs []error
	if p.client != nil {
		if err := p.publishMQTT(s); err != nil {
			errs = append(errs, err)
		}
	}
	if p.haConfig.Enabled {
		if err := p.publishHA(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) publishMQTT(s models.UsageSummary) error {
	payload, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	if err := p.send(p.topicPrefix+"/summary", payload); err != nil {
		return err
	}
	for _, f := range s.FacilityTotals {
		topic := fmt.Sprintf("%s/facility/%s/total", p.topicPrefix, topicSegment(f.ID))
		if err := p.send(topic, []byte(fmt.Sprintf("%.2f", f.Total))); err != nil {
			return err
		}
	}

	p.log.Info("published summary to MQTT",
		zap.String("prefix", p.topicPrefix),
		zap.Int("facilities", len(s.FacilityTotals)))
	return nil
}

func (p *Publisher) send(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) publishHA(ctx context.Context, s models.UsageSummary) error {
	apiURL := fmt.Sprintf("%s/api/states/%s", strings.TrimSuffix(p.haConfig.URL, "/"), p.haConfig.EntityID)

	body, err := sonic.Marshal(haState(s))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	p.log.Info("published summary to Home Assistant", zap.String("entity_id", p.haConfig.EntityID))
	return nil
}

func haState(s models.UsageSummary) HAState {
	attrs := map[string]any{
		"unit_of_measurement": "kWh",
		"friendly_name":       "Average facility usage",
		"facilities":          len(s.FacilityTotals),
		"growth_absolute":     s.Metrics.GrowthRate.Absolute,
		"growth_percentage":   s.Metrics.GrowthRate.Percentage,
	}
	if s.Metrics.PeakHour != nil {
		attrs["peak_hour"] = s.Metrics.PeakHour.Hour
		attrs["peak_kwh"] = s.Metrics.PeakHour.KWh
	}
	if s.Metrics.HighestUsage != nil {
		attrs["highest_facility"] = s.Metrics.HighestUsage.Name
	}
	if s.Metrics.LowestUsage != nil {
		attrs["lowest_facility"] = s.Metrics.LowestUsage.Name
	}
	return HAState{
		State:      fmt.Sprintf("%.2f", s.Metrics.AverageUsage),
		Attributes: attrs,
	}
}

// topicSegment strips MQTT wildcard and level separators from an id
func topicSegment(id string) string {
	if id == "" {
		return "_"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(id)
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
