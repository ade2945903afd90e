// Package testutil holds fixtures shared by package tests: fixed principals,
// sample records and a host backed by a temp-dir SQLite call log.
package testutil

import "github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"

// Fixed principals. Owner is the contract owner in every fixture.
const (
	Owner   ir.Principal = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	LabX    ir.Principal = "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"
	LabY    ir.Principal = "ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC"
	Mallory ir.Principal = "ST3AM1A56AK2C1XAFJ4115ZSV26EB49BVQ10MGCS0"
)

// Sapphire is the reference stone registration.
var Sapphire = ir.StoneAttributes{
	Name:    "Blue Sapphire",
	Weight:  500,
	Color:   "Deep Blue",
	Clarity: "VS1",
	Cut:     "Oval",
	Origin:  "Sri Lanka",
}

// GIAReport is a grading report as submitted by a laboratory.
var GIAReport = ir.VerificationReport{
	LabName:      "GIA",
	Grade:        "AAA",
	ReportNumber: "GIA123456789",
	Notes:        "No indications of clarity enhancement",
}

// HeatTreatment is a typical disclosure.
var HeatTreatment = ir.TreatmentDisclosure{
	TreatmentType: "Heat Treatment",
	Description:   "Heated to 1700C to improve color",
	PerformedBy:   "Ratnapura Lapidary",
	PerformedAt:   95,
}
