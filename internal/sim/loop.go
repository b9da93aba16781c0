package sim

// SolarLoopConfiguration generates the trough_loop_control array that
// configures the arrangement of solar collector assemblies in each loop.
//
// Assumptions: all SCAs are type 1, all HCEs are type 1, and the defocus
// order follows the standard descending sequence n, n-1, ..., 1.
type SolarLoopConfiguration struct {
	SCAsPerLoop int
}

// NewSolarLoopConfiguration creates a loop configuration; n defaults to 8
// when non-positive.
func NewSolarLoopConfiguration(n int) SolarLoopConfiguration {
	if n <= 0 {
		n = 8
	}
	return SolarLoopConfiguration{SCAsPerLoop: n}
}

// TroughLoopControl returns the control array in the simulator's expected
// format: [n, SCA_type, HCE_type, defocus_order, ...].
func (c SolarLoopConfiguration) TroughLoopControl() []int {
	control := []int{c.SCAsPerLoop}
	for order := c.SCAsPerLoop; order >= 1; order-- {
		control = append(control, 1, 1, order)
	}
	return control
}

// ApplyTo assigns the generated control array to the configuration.
func (c SolarLoopConfiguration) ApplyTo(cfg *ConfigSelection) error {
	return cfg.SetInput("trough_loop_control", c.TroughLoopControl())
}
