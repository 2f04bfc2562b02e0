package collector

import (
	"fmt"
	"strings"
	"time"

	sysbattery "github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
)

// Overridden in tests.
var (
	portableBatteries  = sysbattery.GetAll
	sensorTemperatures = host.SensorsTemperatures
)

// collectPortable reads the first battery reported by the platform API.
func collectPortable(now time.Time) (*battery.Sample, error) {
	bats, err := portableBatteries()
	var bat *sysbattery.Battery
	for _, b := range bats {
		if b != nil && b.Full > 0 {
			bat = b
			break
		}
	}
	if bat == nil {
		if err != nil {
			return nil, fmt.Errorf("read battery: %w", err)
		}
		return nil, errNoBattery
	}

	s := &battery.Sample{
		Timestamp:  now,
		Percentage: bat.Current / bat.Full * 100,
	}
	switch bat.State.Raw {
	case sysbattery.Charging:
		s.IsCharging = true
		s.PowerPlugged = true
	case sysbattery.Full, sysbattery.Idle:
		s.PowerPlugged = true
	case sysbattery.Discharging:
		if bat.ChargeRate > 0 {
			if secs, ok := capEstimate(bat.Current / bat.ChargeRate * 3600); ok {
				s.RemainingTime = battery.Float(secs)
			}
		}
	}
	return s, nil
}

// sensorTemperature looks for a hwmon/thermal sensor that belongs to the
// battery.
func sensorTemperature() (float64, bool) {
	temps, err := sensorTemperatures()
	if err != nil && len(temps) == 0 {
		return 0, false
	}
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "bat") && t.Temperature > 0 {
			return t.Temperature, true
		}
	}
	return 0, false
}
