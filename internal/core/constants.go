package core

// Physical constants (SI units).
const (
	// ElementaryCharge is the charge of a single proton in coulomb.
	ElementaryCharge = 1.602176634e-19

	// ElectricConstant is the Coulomb constant 1/(4*pi*eps0) in V*m/C.
	ElectricConstant = 8.9875517873681764e9

	// Boltzmann is the Boltzmann constant in J/K.
	Boltzmann = 1.380649e-23

	// AmuToKg converts atomic mass units to kilogram.
	AmuToKg = 1.66053906660e-27

	// StandardPressure and StandardTemperature define STP conditions
	// used to normalize collision statistics.
	StandardPressure    = 100000.0 // Pa
	StandardTemperature = 273.15   // K
)
