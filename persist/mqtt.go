package persist

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/CK6170/Torquecal-go/models"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client the store needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTStore publishes artifacts as JSON under Topic:
//
//	<topic>/raw/<direction>/<index>
//	<topic>/table/<name>
//	<topic>/record
type MQTTStore struct {
	Client Publisher
	Topic  string

	disconnect func()
}

// DialMQTT connects to the configured broker.
func DialMQTT(cfg models.MQTTConfig) (*MQTTStore, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "torquecal"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, errors.Errorf("connecting to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", cfg.Broker)
	}
	topic := strings.TrimSuffix(cfg.Topic, "/")
	if topic == "" {
		topic = "torquecal"
	}
	return &MQTTStore{
		Client:     client,
		Topic:      topic,
		disconnect: func() { client.Disconnect(250) },
	}, nil
}

func (s *MQTTStore) Close() error {
	if s.disconnect != nil {
		s.disconnect()
	}
	return nil
}

func (s *MQTTStore) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", topic)
	}
	token := s.Client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("publishing %s: timed out", topic)
	}
	return errors.Wrapf(token.Error(), "publishing %s", topic)
}

func (s *MQTTStore) WriteRawWindow(w models.SampleWindow, dir models.Direction, index int) error {
	return s.publish(fmt.Sprintf("%s/raw/%s/%d", s.Topic, dir, index), w)
}

func (s *MQTTStore) WriteTable(t models.Table, path string) error {
	name := t.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s.publish(s.Topic+"/table/"+name, t)
}

func (s *MQTTStore) WriteRecord(r models.CalibrationRecord, path string) error {
	return s.publish(s.Topic+"/record", r)
}
