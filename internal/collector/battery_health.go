package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Health is the battery's identity and wear as reported by the firmware.
type Health struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Technology   string `json:"technology"`
	// CycleCount is the firmware's own counter, 0 when unsupported.
	CycleCount int64 `json:"cycle_count"`
	// HealthPct is full capacity as a percentage of design capacity.
	HealthPct float64 `json:"health_pct"`
}

// CollectHealth reads identity and wear info from sysfs.
func CollectHealth() (*Health, error) {
	matches, err := filepath.Glob(filepath.Join(sysfsRoot, "class/power_supply/BAT*"))
	if err != nil {
		return nil, fmt.Errorf("glob battery: %w", err)
	}
	if len(matches) == 0 {
		return nil, errNoBattery
	}

	data, err := os.ReadFile(filepath.Join(matches[0], "uevent"))
	if err != nil {
		return nil, fmt.Errorf("read uevent: %w", err)
	}

	props := parseUevent(string(data))
	h := &Health{
		Manufacturer: props["POWER_SUPPLY_MANUFACTURER"],
		Model:        props["POWER_SUPPLY_MODEL_NAME"],
		Technology:   props["POWER_SUPPLY_TECHNOLOGY"],
	}
	h.CycleCount, _ = strconv.ParseInt(props["POWER_SUPPLY_CYCLE_COUNT"], 10, 64)

	// Drivers expose either energy (µWh) or charge (µAh) counters.
	for _, prefix := range []string{"POWER_SUPPLY_ENERGY_", "POWER_SUPPLY_CHARGE_"} {
		full, _ := strconv.ParseFloat(props[prefix+"FULL"], 64)
		design, _ := strconv.ParseFloat(props[prefix+"FULL_DESIGN"], 64)
		if full > 0 && design > 0 {
			h.HealthPct = full / design * 100
			break
		}
	}

	return h, nil
}
