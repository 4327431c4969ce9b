package goelastic

// DriverVersion is the version of the goelastic driver
const DriverVersion = "0.3.0"
