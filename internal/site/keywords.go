package site

// serviceKeyword maps a lower-case page-text keyword to its canonical
// service label. The table is ordered so output is deterministic.
type serviceKeyword struct {
	keyword string
	label   string
}

var serviceKeywords = []serviceKeyword{
	{"hand wash", "Hand Wash"},
	{"hand car wash", "Hand Car Wash"},
	{"pressure wash", "Pressure Wash"},
	{"touchless wash", "Touchless Wash"},
	{"express wash", "Express Wash"},
	{"full service wash", "Full Service Wash"},
	{"wax", "Waxing"},
	{"hand wax", "Hand Waxing"},
	{"ceramic coating", "Ceramic Coating"},
	{"nano coating", "Nano Coating"},
	{"graphene coating", "Graphene Coating"},
	{"paint sealant", "Paint Sealant"},
	{"auto detailing", "Auto Detailing"},
	{"car detailing", "Car Detailing"},
	{"mobile detailing", "Mobile Detailing"},
	{"interior detailing", "Interior Detailing"},
	{"exterior detailing", "Exterior Detailing"},
	{"full detail", "Full Detailing"},
	{"express detail", "Express Detailing"},
	{"premium detail", "Premium Detailing"},
	{"paint correction", "Paint Correction"},
	{"paint restoration", "Paint Restoration"},
	{"scratch removal", "Scratch Removal"},
	{"swirl removal", "Swirl Removal"},
	{"buffing", "Buffing & Polishing"},
	{"polishing", "Polishing"},
	{"paint protection film", "Paint Protection Film (PPF)"},
	{"ppf", "PPF"},
	{"clear bra", "Clear Bra"},
	{"vinyl wrap", "Vinyl Wrapping"},
	{"headlight restoration", "Headlight Restoration"},
	{"interior cleaning", "Interior Cleaning"},
	{"carpet cleaning", "Carpet Cleaning"},
	{"upholstery cleaning", "Upholstery Cleaning"},
	{"leather cleaning", "Leather Cleaning"},
	{"steam cleaning", "Steam Cleaning"},
	{"odor removal", "Odor Removal"},
	{"pet hair removal", "Pet Hair Removal"},
	{"stain removal", "Stain Removal"},
	{"wheel cleaning", "Wheel Cleaning"},
	{"tire shine", "Tire Shine"},
	{"engine bay cleaning", "Engine Bay Cleaning"},
	{"window tinting", "Window Tinting"},
	{"dent repair", "Dent Repair"},
	{"paintless dent repair", "Paintless Dent Repair"},
	{"powder coating", "Powder Coating"},
	{"trim restoration", "Trim Restoration"},
}
