package flags

// ReleaseDetectionLabels maps RD method column suffixes to display names
var ReleaseDetectionLabels = map[string]string{
	"automatic tank gauging":                     "Automatic Tank Gauging (ATG)",
	"interstitial monitoring":                    "Interstitial Monitoring",
	"statistical inventory reconciliation":       "Statistical Inventory Reconciliation (SIR)",
	"tank tightness testing":                     "Tank Tightness Testing",
	"line tightness testing":                     "Line Tightness Testing",
	"vapor monitoring":                           "Vapor Monitoring",
	"groundwater monitoring":                     "Groundwater Monitoring",
	"inventory control":                          "Inventory Control",
	"secondary containment":                      "Secondary Containment",
	"visual inspection":                          "Visual Inspection",
	"line leak detector":                         "Line Leak Detector",
	"pressure/vacuum monitoring":                 "Pressure/Vacuum Monitoring",
	"automatic line leak detector":               "Automatic Line Leak Detector",
	"cathodic protection":                        "Cathodic Protection",
	"manual tank gauging":                        "Manual Tank Gauging",
	"manual line leak detector":                  "Manual Line Leak Detector",
	"statistical inventory reconciliation (sir)": "Statistical Inventory Reconciliation (SIR)",
}

// PipeMaterialLabels covers the piping materials whose title-cased column
// names read poorly
var PipeMaterialLabels = map[string]string{
	"frp":                           "Fiberglass Reinforced Plastic (FRP)",
	"fiberglass reinforced plastic": "Fiberglass Reinforced Plastic (FRP)",
	"pvc":                           "PVC",
	"hdpe":                          "HDPE",
	"flexible piping":               "Flexible Piping",
	"cathodically protected steel":  "Cathodically Protected Steel",
}

// TankMaterialLabels does the same for tank construction flags
var TankMaterialLabels = map[string]string{
	"frp":                           "Fiberglass Reinforced Plastic (FRP)",
	"fiberglass reinforced plastic": "Fiberglass Reinforced Plastic (FRP)",
	"sti-p3":                        "STI-P3 Steel",
	"cathodically protected steel":  "Cathodically Protected Steel",
	"lined interior":                "Lined Interior",
}
