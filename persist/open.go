package persist

import (
	"github.com/sirupsen/logrus"

	"github.com/CK6170/Torquecal-go/calibration"
	"github.com/CK6170/Torquecal-go/models"
)

// ForConfig assembles the stores a config asks for: files under OutputDir,
// plus MQTT when a broker is set. An unreachable broker is logged and
// skipped. The returned func releases the broker connection.
func ForConfig(cfg models.Config, log *logrus.Entry) (calibration.Store, func()) {
	stores := Multi{FileStore{Root: cfg.OutputDir}}
	closeFn := func() {}
	if cfg.MQTT != nil && cfg.MQTT.Broker != "" {
		m, err := DialMQTT(*cfg.MQTT)
		if err != nil {
			log.Warnf("MQTT publishing disabled: %v", err)
		} else {
			log.Infof("publishing results to %s under %s", cfg.MQTT.Broker, m.Topic)
			stores = append(stores, m)
			closeFn = func() { _ = m.Close() }
		}
	}
	return stores, closeFn
}
