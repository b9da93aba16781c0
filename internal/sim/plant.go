package sim

import (
	"math"

	"github.com/ppadillaq/sammoo/internal/errors"
)

// Configuration presets. A preset selects the module chain that the
// adapter drives; execution order within a chain is fixed because later
// modules read outputs produced by earlier ones.
const (
	PresetLCOHCalculator  = "LCOH Calculator"
	PresetCommercialOwner = "Commercial owner"
)

// Reduced-order plant constants. The high-fidelity simulator is an
// external collaborator; these modules keep the same configuration
// surface and output names so campaigns and tests can run end to end.
const (
	apertureWidth    = 5.76 // collector aperture width [m]
	opticalEta       = 0.72 // peak optical efficiency
	annualDNIPerIbn  = 2.53 // annual DNI [kWh/m2/yr] per W/m2 of design irradiance
	hoursPerYear     = 8760.0
	sqmPerAcre       = 4046.86
	fieldCostPerSqm  = 550.0 // collector field installed cost [$/m2]
	storageCostPerKW = 35.0  // TES installed cost [$/kWh-t]
)

// TroughPhysical is the physical-performance module of the chain: the
// parabolic trough field, thermal storage, and heat delivery model.
type TroughPhysical struct {
	baseModule
}

// NewTroughPhysical creates the system module with its default technology
// configuration.
func NewTroughPhysical() *TroughPhysical {
	return &TroughPhysical{baseModule: newBaseModule("trough_physical_iph", map[string]interface{}{
		"file_name":                "",
		"I_bn_des":                 950.0,
		"specified_solar_multiple": 2.0,
		"tshours":                  6.0,
		"T_loop_out":               390.0,
		"T_loop_in":                90.0,
		"T_startup":                180.0,
		"T_shutdown":               80.0,
		"Row_Distance":             15.0,
		"q_pb_design":              5.0,
		"h_tank_in":                12.0,
		"timestep_load_abs":        []float64(nil),
		"trough_loop_control":      []int(nil),
	})}
}

// Execute runs the annual performance model.
func (m *TroughPhysical) Execute() error {
	ibn, err := m.floatInput("I_bn_des")
	if err != nil {
		return err
	}
	sm, err := m.floatInput("specified_solar_multiple")
	if err != nil {
		return err
	}
	tshours, err := m.floatInput("tshours")
	if err != nil {
		return err
	}
	tLoopOut, err := m.floatInput("T_loop_out")
	if err != nil {
		return err
	}
	tLoopIn, err := m.floatInput("T_loop_in")
	if err != nil {
		return err
	}
	tStartup, err := m.floatInput("T_startup")
	if err != nil {
		return err
	}
	tShutdown, err := m.floatInput("T_shutdown")
	if err != nil {
		return err
	}
	rowDistance, err := m.floatInput("Row_Distance")
	if err != nil {
		return err
	}
	qDesign, err := m.floatInput("q_pb_design")
	if err != nil {
		return err
	}
	hTank, err := m.floatInput("h_tank_in")
	if err != nil {
		return err
	}

	if ibn <= 0 || qDesign <= 0 || rowDistance <= 0 {
		return errors.Newf(errors.KindEvaluation,
			"module %s: non-physical design point (I_bn_des=%v, q_pb_design=%v, Row_Distance=%v)",
			m.name, ibn, qDesign, rowDistance).WithComponent("sim")
	}
	if tLoopOut <= tLoopIn {
		return errors.Newf(errors.KindEvaluation,
			"module %s: loop outlet temperature %v below inlet %v", m.name, tLoopOut, tLoopIn).
			WithComponent("sim")
	}

	// Field sized from the design thermal power and solar multiple.
	aperture := sm * qDesign * 1e6 / (opticalEta * ibn) // m2

	// Row-to-row shading: tighter spacing trades land for optical loss.
	shade := 1.0 - 0.35*apertureWidth/rowDistance
	if shade < 0 {
		shade = 0
	}

	// Receiver thermal losses grow with operating temperature.
	thermalEta := 0.85 - 5e-4*(tLoopOut-300.0)

	// Startup/shutdown setpoints shave a small fraction of the yield.
	startupLoss := 5e-4*(tStartup-170.0) + 3e-4*(100.0-tShutdown)
	if startupLoss < 0 {
		startupLoss = 0
	}

	fieldEnergy := aperture * annualDNIPerIbn * ibn * opticalEta * shade * thermalEta * (1.0 - startupLoss)

	// Annual heat demand from the load profile when present, continuous
	// design load otherwise.
	annualLoad := qDesign * 1e3 * hoursPerYear // kWh-t
	if v, ok := m.inputs["timestep_load_abs"]; ok {
		if profile, ok := v.([]float64); ok && len(profile) > 0 {
			annualLoad = 0
			for _, kw := range profile {
				annualLoad += kw
			}
		}
	}

	// Storage raises the fraction of the load the plant can follow. Tank
	// height nudges storage efficiency through its surface/volume ratio.
	utilization := 0.50 + 0.04*tshours + 0.002*(hTank-10.0)
	if utilization > 0.95 {
		utilization = 0.95
	}

	delivered := math.Min(fieldEnergy, annualLoad*utilization)

	landArea := aperture * (rowDistance / apertureWidth) / sqmPerAcre

	m.setOutput("annual_energy", delivered)
	m.setOutput("annual_load", annualLoad)
	m.setOutput("capacity_factor", 100.0*delivered/(qDesign*1e3*hoursPerYear))
	m.setOutput("total_aperture", aperture)
	m.setOutput("total_land_area", landArea)
	m.executed = true
	return nil
}

// LcoeFCR is the fixed-charge-rate levelized-cost module used by the
// LCOH Calculator preset.
type LcoeFCR struct {
	baseModule
	system *TroughPhysical
}

// NewLcoeFCR creates the finance module sharing state with an existing
// system module.
func NewLcoeFCR(system *TroughPhysical) *LcoeFCR {
	return &LcoeFCR{
		baseModule: newBaseModule("lcoefcr_design", map[string]interface{}{
			"fixed_charge_rate":    0.076,
			"fixed_operating_cost": 0.015,
		}),
		system: system,
	}
}

// Execute computes the real levelized cost of heat from the system
// module's performance outputs.
func (m *LcoeFCR) Execute() error {
	fcr, err := m.floatInput("fixed_charge_rate")
	if err != nil {
		return err
	}
	fixedOp, err := m.floatInput("fixed_operating_cost")
	if err != nil {
		return err
	}

	annualEnergy, err := sourceOutput(m.system, "annual_energy")
	if err != nil {
		return err
	}
	capex, err := installedCost(m.system)
	if err != nil {
		return err
	}

	if annualEnergy <= 0 {
		return errors.Newf(errors.KindEvaluation, "module %s: zero annual energy", m.name).
			WithComponent("sim")
	}

	lcoe := (fcr*capex + fixedOp*capex) / annualEnergy
	m.setOutput("lcoe_real", lcoe)
	m.setOutput("lcoe_nom", lcoe*1.1)
	m.executed = true
	return nil
}

// UtilityRate models the buy-side heat bill with and without the system.
type UtilityRate struct {
	baseModule
	system *TroughPhysical
}

// NewUtilityRate creates the utility-rate module for the commercial
// owner preset.
func NewUtilityRate(system *TroughPhysical) *UtilityRate {
	return &UtilityRate{
		baseModule: newBaseModule("utilityrate5", map[string]interface{}{
			"heat_price": 0.055, // $/kWh-t
		}),
		system: system,
	}
}

func (m *UtilityRate) Execute() error {
	price, err := m.floatInput("heat_price")
	if err != nil {
		return err
	}
	annualLoad, err := sourceOutput(m.system, "annual_load")
	if err != nil {
		return err
	}
	delivered, err := sourceOutput(m.system, "annual_energy")
	if err != nil {
		return err
	}

	without := annualLoad * price
	with := math.Max(annualLoad-delivered, 0) * price

	m.setOutput("utility_bill_wo_sys_year1", without)
	m.setOutput("utility_bill_w_sys_year1", with)
	m.executed = true
	return nil
}

// ThermalRate prices delivered heat for the commercial owner preset.
type ThermalRate struct {
	baseModule
	system *TroughPhysical
}

// NewThermalRate creates the thermal-rate module.
func NewThermalRate(system *TroughPhysical) *ThermalRate {
	return &ThermalRate{
		baseModule: newBaseModule("thermalrate_iph", map[string]interface{}{
			"thermal_rate_escalation": 0.02,
		}),
		system: system,
	}
}

func (m *ThermalRate) Execute() error {
	esc, err := m.floatInput("thermal_rate_escalation")
	if err != nil {
		return err
	}
	delivered, err := sourceOutput(m.system, "annual_energy")
	if err != nil {
		return err
	}

	m.setOutput("thermal_revenue_year1", delivered*0.055)
	m.setOutput("thermal_rate_escalation_applied", esc)
	m.executed = true
	return nil
}

// CashLoan is the project cash-flow module: first-year savings, simple
// payback, NPV, and the cumulative discounted savings series.
type CashLoan struct {
	baseModule
	system  *TroughPhysical
	utility *UtilityRate
}

// NewCashLoan creates the cash-flow module reading performance outputs
// from the system module and bills from the utility-rate module.
func NewCashLoan(system *TroughPhysical, utility *UtilityRate) *CashLoan {
	return &CashLoan{
		baseModule: newBaseModule("cashloan_heat", map[string]interface{}{
			"analysis_period":    25.0,
			"real_discount_rate": 0.064,
			"rate_escalation":    0.02,
		}),
		system:  system,
		utility: utility,
	}
}

func (m *CashLoan) Execute() error {
	period, err := m.floatInput("analysis_period")
	if err != nil {
		return err
	}
	discount, err := m.floatInput("real_discount_rate")
	if err != nil {
		return err
	}
	escalation, err := m.floatInput("rate_escalation")
	if err != nil {
		return err
	}

	billWithout, err := sourceOutput(m.utility, "utility_bill_wo_sys_year1")
	if err != nil {
		return err
	}
	billWith, err := sourceOutput(m.utility, "utility_bill_w_sys_year1")
	if err != nil {
		return err
	}
	capex, err := installedCost(m.system)
	if err != nil {
		return err
	}

	years := int(period)
	if years < 1 {
		return errors.Newf(errors.KindEvaluation, "module %s: analysis period %v too short", m.name, period).
			WithComponent("sim")
	}

	savings := billWithout - billWith

	// Cumulative discounted savings over the analysis period; the last
	// element is the lifetime total.
	cumulative := make([]float64, years)
	total := 0.0
	for t := 1; t <= years; t++ {
		cash := savings * math.Pow(1+escalation, float64(t-1)) / math.Pow(1+discount, float64(t))
		total += cash
		cumulative[t-1] = total
	}

	payback := math.Inf(1)
	if savings > 0 {
		payback = capex / savings
	}

	m.setOutput("savings_year1", savings)
	m.setOutput("payback", payback)
	m.setOutput("npv", total-capex)
	m.setOutput("cf_discounted_savings", cumulative)
	m.executed = true
	return nil
}

// installedCost sizes capital cost from the executed system module.
func installedCost(system *TroughPhysical) (float64, error) {
	aperture, err := sourceOutput(system, "total_aperture")
	if err != nil {
		return 0, err
	}
	tshours, err := system.floatInput("tshours")
	if err != nil {
		return 0, err
	}
	qDesign, err := system.floatInput("q_pb_design")
	if err != nil {
		return 0, err
	}
	return aperture*fieldCostPerSqm + tshours*qDesign*1e3*storageCostPerKW, nil
}

// DefaultChain builds the module chain for a configuration preset, in
// its fixed execution order. Unknown presets are a configuration error.
func DefaultChain(preset string) ([]Module, error) {
	switch preset {
	case PresetLCOHCalculator:
		system := NewTroughPhysical()
		return []Module{system, NewLcoeFCR(system)}, nil
	case PresetCommercialOwner:
		system := NewTroughPhysical()
		utility := NewUtilityRate(system)
		return []Module{system, utility, NewThermalRate(system), NewCashLoan(system, utility)}, nil
	default:
		return nil, errors.Newf(errors.KindConfiguration, "unknown config preset %q", preset).
			WithComponent("sim").WithOp("DefaultChain")
	}
}
