package simulator

import (
	"fmt"
	"time"
)

// DeviceConnectionSteps is the execution script for a device connection
// request.
func DeviceConnectionSteps(interfaceCount int) []Step {
	return []Step{
		{Name: "Validating device connectivity", Duration: 1500 * time.Millisecond},
		{Name: "Backing up current configuration", Duration: 2 * time.Second},
		{Name: "Configuring management interface", Duration: 1800 * time.Millisecond},
		{Name: fmt.Sprintf("Configuring %d data interfaces", interfaceCount), Duration: 2500 * time.Millisecond},
		{Name: "Applying vPC configurations", Duration: 2200 * time.Millisecond},
		{Name: "Verifying connectivity", Duration: 1500 * time.Millisecond},
		{Name: "Running post-deployment tests", Duration: 2 * time.Second},
	}
}

// DataCenterDeploymentSteps is the execution script for a data center
// deployment request.
func DataCenterDeploymentSteps(designPattern string) []Step {
	return []Step{
		{Name: "Validating deployment parameters", Duration: time.Second},
		{Name: "Provisioning spine switches", Duration: 3 * time.Second},
		{Name: "Provisioning leaf switches", Duration: 2500 * time.Millisecond},
		{Name: "Configuring underlay network", Duration: 2800 * time.Millisecond},
		{Name: "Configuring overlay network", Duration: 3200 * time.Millisecond},
		{Name: fmt.Sprintf("Applying %s design pattern", designPattern), Duration: 2500 * time.Millisecond},
		{Name: "Running connectivity tests", Duration: 2 * time.Second},
		{Name: "Validating redundancy", Duration: 1800 * time.Millisecond},
		{Name: "Generating deployment report", Duration: 1200 * time.Millisecond},
	}
}

// PopDeploymentSteps is the execution script for a point-of-presence
// deployment request.
func PopDeploymentSteps(provider string) []Step {
	return []Step{
		{Name: "Coordinating with provider", Duration: 2 * time.Second},
		{Name: fmt.Sprintf("Provisioning %s infrastructure", provider), Duration: 3500 * time.Millisecond},
		{Name: "Installing edge devices", Duration: 2800 * time.Millisecond},
		{Name: "Configuring routing protocols", Duration: 2500 * time.Millisecond},
		{Name: "Establishing provider connections", Duration: 3 * time.Second},
		{Name: "Testing end-to-end connectivity", Duration: 2200 * time.Millisecond},
		{Name: "Validating SLA requirements", Duration: 1800 * time.Millisecond},
		{Name: "Updating network documentation", Duration: 1500 * time.Millisecond},
	}
}
