package classifier

import "github.com/mrz1836/structure/internal/constants"

// route is one scored routing target. Declaration order breaks ties.
type route struct {
	domain    constants.Domain
	subdomain string
	keywords  []string
}

//nolint:gochecknoglobals // Read-only routing table
var defaultRoutes = []route{
	{constants.DomainPhysics, "fluids", []string{
		"fluid", "water", "h2o", "liquid", "flow", "pressure", "viscosity", "buoyancy",
		"hydrostatic", "bernoulli", "reynolds", "density", "specific weight",
		"surface tension", "pipe", "channel", "underwater", "depth",
	}},
	{constants.DomainPhysics, "mechanics", []string{
		"force", "acceleration", "velocity", "momentum", "torque", "friction",
		"gravity", "kinematics", "projectile", "motion", "collision",
	}},
	{constants.DomainPhysics, "thermodynamics", []string{
		"heat", "temperature", "entropy", "enthalpy", "thermal", "ideal gas",
		"adiabatic", "isothermal", "carnot", "specific heat", "conduction", "convection",
	}},
	{constants.DomainChemistry, "", []string{
		"reaction", "molecule", "atom", "bond", "equilibrium", "ph", "acid",
		"oxidation", "stoichiometry", "molar", "concentration", "mole",
	}},
	{constants.DomainMath, "", []string{
		"integral", "derivative", "equation", "solve", "proof", "matrix", "vector",
		"polynomial", "calculus", "trigonometry", "area", "circle", "circumference",
		"radius", "diameter", "pi", "plus", "minus",
	}},
	{constants.DomainExperiment, "", []string{
		"experiment", "hypothesis", "protocol", "randomized", "double-blind",
		"treatment", "control group", "cohort", "irb", "trial", "placebo", "study",
	}},
	{constants.DomainSurvey, "", []string{
		"survey", "questionnaire", "likert", "respondent", "sample size",
		"margin of error", "demographic", "non-response", "stratified", "sampling",
	}},
	{constants.DomainProject, "", []string{
		"gantt", "project", "critical path", "milestone", "deadline", "sprint",
		"deliverable", "resource", "dependencies", "roadmap",
	}},
	{constants.DomainOperations, "", []string{
		"workflow", "inventory", "sop", "escalation", "throughput", "bottleneck",
		"shift", "capacity", "procedure", "logistics",
	}},
	{constants.DomainAnalysis, "", []string{
		"regression", "dataset", "data", "p-value", "confidence interval", "pivot",
		"aggregation", "outlier", "distribution", "correlation", "statistics",
		"mean", "median", "average", "standard deviation", "analyze", "summarize",
	}},
	{constants.DomainCode, "", []string{
		"function", "class", "code", "program", "algorithm", "debug", "refactor",
		"implement", "script", "file", "config", "repository",
	}},
}

//nolint:gochecknoglobals // Read-only domain -> gate table
var gatesByDomain = map[constants.Domain][]string{
	constants.DomainPhysics:    {constants.GateBounds},
	constants.DomainChemistry:  {constants.GateBounds},
	constants.DomainExperiment: {constants.GateExperimentSafety},
	constants.DomainSurvey:     {constants.GateExperimentSafety},
	constants.DomainCode:       {constants.GateFileWrite},
}

//nolint:gochecknoglobals // Read-only domain -> kernel table
var kernelsByDomain = map[constants.Domain][]string{
	constants.DomainPhysics:    {constants.KernelConstants},
	constants.DomainChemistry:  {constants.KernelConstants},
	constants.DomainMath:       {constants.KernelConstants},
	constants.DomainAnalysis:   {constants.KernelStatistics, constants.KernelDataSummary},
	constants.DomainExperiment: {constants.KernelStatistics},
	constants.DomainSurvey:     {constants.KernelStatistics},
}
