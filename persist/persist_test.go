package persist

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
	"github.com/xuri/excelize/v2"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/CK6170/Torquecal-go/calibration/mocks"
	"github.com/CK6170/Torquecal-go/models"
)

func sampleTable() models.Table {
	return models.Table{
		Name:   "ascending",
		Header: []string{"nominal_torque_Nm", "mean_volts_per_volt"},
		Rows:   [][]string{{"0", "0.0001"}, {"360", "0.002"}},
	}
}

func readCSV(path string) [][]string {
	f, err := os.Open(path)
	So(err, ShouldBeNil)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	So(err, ShouldBeNil)
	return rows
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store", t, func() {
		root := t.TempDir()
		s := FileStore{Root: root}

		Convey("raw windows land in raw/<direction>/<index>/data.csv", func() {
			w := models.SampleWindow{Samples: []models.Sample{{Time: 0, Value: 0.5}, {Time: 0.001, Value: 0.25}}}
			So(s.WriteRawWindow(w, models.Descending, 3), ShouldBeNil)
			rows := readCSV(filepath.Join(root, "raw", "descending", "3", "data.csv"))
			So(rows, ShouldResemble, [][]string{{"time_s", "volts_per_volt"}, {"0", "0.5"}, {"0.001", "0.25"}})
		})

		Convey("CSV tables carry the header and one row per setpoint", func() {
			path := filepath.Join(root, "processed", "ascending.csv")
			So(s.WriteTable(sampleTable(), path), ShouldBeNil)
			rows := readCSV(path)
			So(rows, ShouldHaveLength, 3)
			So(rows[0], ShouldResemble, sampleTable().Header)
		})

		Convey("XLSX tables store numbers as numbers", func() {
			path := filepath.Join(root, "processed", "ascending.xlsx")
			So(s.WriteTable(sampleTable(), path), ShouldBeNil)
			f, err := excelize.OpenFile(path)
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := f.GetRows("ascending")
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
			So(rows[0][0], ShouldEqual, "nominal_torque_Nm")
			So(rows[2][0], ShouldEqual, "360")
		})

		Convey("records are indented JSON", func() {
			path := filepath.Join(root, "calibration.json")
			rec := models.CalibrationRecord{ID: "abc", Units: "Nm/(V/V)", Timestamp: time.Unix(0, 0).UTC()}
			So(s.WriteRecord(rec, path), ShouldBeNil)
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			var back models.CalibrationRecord
			So(json.Unmarshal(data, &back), ShouldBeNil)
			So(back.ID, ShouldEqual, "abc")
			So(string(data), ShouldContainSubstring, "\n  ")
		})
	})
}

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                       { return true }
func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *fakeToken) Error() error                     { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload.([]byte))
	return &fakeToken{err: p.err}
}

func TestMQTTStore(t *testing.T) {
	Convey("Given an MQTT store", t, func() {
		pub := &fakePublisher{}
		s := &MQTTStore{Client: pub, Topic: "rig1"}

		Convey("artifacts are published to their topics", func() {
			So(s.WriteRawWindow(models.SampleWindow{}, models.Ascending, 2), ShouldBeNil)
			So(s.WriteTable(sampleTable(), "data/processed/ascending.csv"), ShouldBeNil)
			So(s.WriteRecord(models.CalibrationRecord{ID: "x"}, "data/calibration.json"), ShouldBeNil)
			So(pub.topics, ShouldResemble, []string{"rig1/raw/ascending/2", "rig1/table/ascending", "rig1/record"})

			var tbl models.Table
			So(json.Unmarshal(pub.payloads[1], &tbl), ShouldBeNil)
			So(tbl, ShouldResemble, sampleTable())
		})

		Convey("a broker error is returned", func() {
			pub.err = errors.New("not authorized")
			err := s.WriteRecord(models.CalibrationRecord{}, "")
			So(errors.Cause(err).Error(), ShouldEqual, "not authorized")
		})
	})
}

func TestMulti(t *testing.T) {
	Convey("Multi writes to every store", t, func() {
		a, b := &mocks.Store{}, &mocks.Store{}
		a.On("WriteTable", mock.Anything, "t.csv").Return(nil)
		b.On("WriteTable", mock.Anything, "t.csv").Return(errors.New("broker down"))
		m := Multi{a, b}

		err := m.WriteTable(sampleTable(), "t.csv")
		So(err, ShouldNotBeNil)
		a.AssertCalled(t, "WriteTable", mock.Anything, "t.csv")
		b.AssertCalled(t, "WriteTable", mock.Anything, "t.csv")
	})

	Convey("Multi fans out to file and MQTT stores", t, func() {
		pub := &fakePublisher{}
		root := t.TempDir()
		m := Multi{FileStore{Root: root}, &MQTTStore{Client: pub, Topic: "rig"}}
		So(m.WriteRawWindow(models.SampleWindow{}, models.Ascending, 0), ShouldBeNil)
		_, err := os.Stat(filepath.Join(root, "raw", "ascending", "0", "data.csv"))
		So(err, ShouldBeNil)
		topics := append([]string(nil), pub.topics...)
		sort.Strings(topics)
		So(topics, ShouldResemble, []string{"rig/raw/ascending/0"})
	})
}
