package config

// Presets are ready-made simulation setups, selectable by name from the
// command line.
var Presets = map[string]*Config{
	// free expansion of a charged cloud under its own space charge
	"expansion": {
		TimeSteps:               20000,
		Dt:                      1e-6,
		TrajectoryWriteInterval: 200,
		SpaceChargeFactor:       1.0,
		Theta:                   DefaultTheta,
		Ions: []IonGroup{
			{N: 2000, MassAMU: 100.0, ChargeElementary: 1.0},
		},
		StartZone: StartZone{
			Shape:  ZoneBox,
			Corner: [3]float64{-1.5e-3, -1.5e-3, -1.5e-3},
			Size:   [3]float64{3e-3, 3e-3, 3e-3},
		},
		CollisionModel:  ModelNone,
		TerminationMode: TerminationTerminate,
		Domain: Domain{
			Min: [3]float64{-1, -1, -1},
			Max: [3]float64{1, 1, 1},
		},
	},

	// collisional cooling of a hot cloud in a nitrogen bath
	"cooling": {
		TimeSteps:               50000,
		Dt:                      2e-7,
		TrajectoryWriteInterval: 500,
		CompressTrajectory:      true,
		SpaceChargeFactor:       1.0,
		Theta:                   DefaultTheta,
		Ions: []IonGroup{
			{N: 1000, MassAMU: 200.0, ChargeElementary: 1.0},
		},
		StartZone: StartZone{
			Shape:      ZoneCylinder,
			Axis:       [3]float64{0, 0, 1},
			Radius:     5e-4,
			HalfLength: 2e-3,
		},
		CollisionModel: ModelHardSphere,
		BackgroundGas: []GasComponent{
			{PressurePa: 100.0, TemperatureK: 298.0, MassAMU: 28.0, DiameterM: 3.64e-10},
		},
		TerminationMode: TerminationRestart,
		Domain: Domain{
			Min: [3]float64{-5e-3, -5e-3, -5e-3},
			Max: [3]float64{5e-3, 5e-3, 5e-3},
		},
	},

	// high pressure drift with the statistical diffusion model
	"drift": {
		TimeSteps:               10000,
		Dt:                      1e-7,
		TrajectoryWriteInterval: 100,
		SpaceChargeFactor:       0.0,
		Theta:                   DefaultTheta,
		BackgroundField:         [3]float64{1000, 0, 0},
		Ions: []IonGroup{
			{N: 500, MassAMU: 150.0, ChargeElementary: 1.0},
		},
		StartZone: StartZone{
			Shape:  ZoneBox,
			Corner: [3]float64{-5e-4, -5e-4, -5e-4},
			Size:   [3]float64{1e-3, 1e-3, 1e-3},
		},
		CollisionModel: ModelSDS,
		BackgroundGas: []GasComponent{
			{PressurePa: 10000.0, TemperatureK: 298.0, MassAMU: 28.0, DiameterM: 3.64e-10},
		},
		TerminationMode: TerminationTerminate,
		Domain: Domain{
			Min: [3]float64{-0.05, -0.01, -0.01},
			Max: [3]float64{0.05, 0.01, 0.01},
		},
	},

	// two component bath gas exercising the multi model
	"mixed_gas": {
		TimeSteps:               20000,
		Dt:                      2e-7,
		TrajectoryWriteInterval: 200,
		SpaceChargeFactor:       1.0,
		Theta:                   DefaultTheta,
		Ions: []IonGroup{
			{N: 500, MassAMU: 100.0, ChargeElementary: 1.0},
			{N: 500, MassAMU: 250.0, ChargeElementary: 1.0},
		},
		StartZone: StartZone{
			Shape:  ZoneBox,
			Corner: [3]float64{-1e-3, -1e-3, -1e-3},
			Size:   [3]float64{2e-3, 2e-3, 2e-3},
		},
		CollisionModel: ModelMulti,
		BackgroundGas: []GasComponent{
			{PressurePa: 80.0, TemperatureK: 298.0, MassAMU: 28.0, DiameterM: 3.64e-10},
			{PressurePa: 20.0, TemperatureK: 298.0, MassAMU: 4.0, DiameterM: 2.6e-10},
		},
		TerminationMode: TerminationTerminate,
		Domain: Domain{
			Min: [3]float64{-5e-3, -5e-3, -5e-3},
			Max: [3]float64{5e-3, 5e-3, 5e-3},
		},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
