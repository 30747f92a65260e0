package records

import "strings"

// Field identifies one column of the record table. The set of fields and
// their order are fixed; the display name doubles as the CSV header and the
// HTML form key.
type Field int

const (
	ArmyNo Field = iota
	Rank
	Name
	EmailAddress
	MobileNumber
	AlternatePhoneNumber
	PermanentAddress
	CorrespondenceAddress
	CSDCardNumber

	Unit
	UnitLocation
	WKSP
	DateOfEnlistment
	DateOfCommission
	DateOfPromotion
	PresentAppointment
	EnrolmentType
	PostingHistory
	RecordOffice
	RecordOfficeAddress

	EducationalQualification
	MilitaryQualification
	SpecialSkills
	CoursesAttended
	LanguagesKnown

	ICardNo
	AadharNo
	PANCardNo
	PassportNumber
	DrivingLicenseNumber
	DrivingLicenseExpiry

	MaritalStatus
	SpouseName
	SpouseOccupation
	NumberOfDependents
	ChildrenNames
	ChildrenEducation
	NextOfKinName
	NextOfKinRelationship
	NextOfKinContact
	DependentsAddress

	DOB
	Age
	Gender
	BloodGroup
	DisabilityStatus
	MedicalCategory
	LastMedicalExaminationDate
	Height
	Weight
	BodyMarks

	BankName
	IFSCCode
	AccountNumber
	AccountHolderType
	NomineeName

	LastLeaveAvailed
	LeaveBalance
	AwardsAndDecorations
	DisciplinaryActions

	Religion
	Caste
	Category
	HobbiesInterests
	Remarks

	NearestRailwayStation
	PendingLegalCases
	ProceedingsStatus

	PANUploadPath
	AadharUploadPath
	PhotoUploadPath
	CreatedOn
	LastModified

	numFields
)

var fieldNames = [numFields]string{
	ArmyNo:                "Army No",
	Rank:                  "Rank",
	Name:                  "Name",
	EmailAddress:          "Email Address",
	MobileNumber:          "Mobile Number",
	AlternatePhoneNumber:  "Alternate Phone Number",
	PermanentAddress:      "Permanent Address",
	CorrespondenceAddress: "Correspondence Address",
	CSDCardNumber:         "CSD Card Number",

	Unit:                "Unit",
	UnitLocation:        "Unit Location",
	WKSP:                "WKSP",
	DateOfEnlistment:    "Date of Enlistment",
	DateOfCommission:    "Date of Commission",
	DateOfPromotion:     "Date of Promotion",
	PresentAppointment:  "Present Appointment",
	EnrolmentType:       "Enrolment Type",
	PostingHistory:      "Posting History",
	RecordOffice:        "Record Office",
	RecordOfficeAddress: "Record Office Address",

	EducationalQualification: "Educational Qualification",
	MilitaryQualification:    "Military Qualification",
	SpecialSkills:            "Special Skills",
	CoursesAttended:          "Courses Attended",
	LanguagesKnown:           "Languages Known",

	ICardNo:              "I-Card No",
	AadharNo:             "Aadhar No",
	PANCardNo:            "PAN Card No",
	PassportNumber:       "Passport Number",
	DrivingLicenseNumber: "Driving License Number",
	DrivingLicenseExpiry: "Driving License Expiry",

	MaritalStatus:         "Marital Status",
	SpouseName:            "Spouse Name",
	SpouseOccupation:      "Spouse Occupation",
	NumberOfDependents:    "Number of Dependents",
	ChildrenNames:         "Children Names",
	ChildrenEducation:     "Children Education",
	NextOfKinName:         "Next of Kin Name",
	NextOfKinRelationship: "Next of Kin Relationship",
	NextOfKinContact:      "Next of Kin Contact",
	DependentsAddress:     "Dependents Address",

	DOB:                        "DOB",
	Age:                        "Age",
	Gender:                     "Gender",
	BloodGroup:                 "Blood Group",
	DisabilityStatus:           "Disability Status",
	MedicalCategory:            "Medical Category",
	LastMedicalExaminationDate: "Last Medical Examination Date",
	Height:                     "Height (cm)",
	Weight:                     "Weight (kg)",
	BodyMarks:                  "Body Marks",

	BankName:          "Bank Name",
	IFSCCode:          "IFSC Code",
	AccountNumber:     "Account Number",
	AccountHolderType: "Account Holder Type",
	NomineeName:       "Nominee Name",

	LastLeaveAvailed:     "Last Leave Availed",
	LeaveBalance:         "Leave Balance",
	AwardsAndDecorations: "Awards & Decorations",
	DisciplinaryActions:  "Disciplinary Actions",

	Religion:         "Religion",
	Caste:            "Caste",
	Category:         "Category",
	HobbiesInterests: "Hobbies/Interests",
	Remarks:          "Remarks",

	NearestRailwayStation: "Nearest Railway Station",
	PendingLegalCases:     "Pending Legal Cases",
	ProceedingsStatus:     "Court/Disciplinary Proceedings Status",

	PANUploadPath:    "PAN Upload Path",
	AadharUploadPath: "Aadhar Upload Path",
	PhotoUploadPath:  "Photo Upload Path",
	CreatedOn:        "Created On",
	LastModified:     "Last Modified",
}

// String returns the display name of the field.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return ""
	}
	return fieldNames[f]
}

// IsMultiEntry reports whether the field stores several items joined by
// MultiEntrySeparator.
func (f Field) IsMultiEntry() bool {
	switch f {
	case NearestRailwayStation, PendingLegalCases, ProceedingsStatus, ChildrenNames, PostingHistory:
		return true
	}
	return false
}

// Section groups form fields under a heading.
type Section struct {
	Title  string
	Fields []Field
}

// Sections lists the form fields in display order.
var Sections = []Section{
	{"Identity & Contact", fieldRange(ArmyNo, CSDCardNumber)},
	{"Service Details", fieldRange(Unit, RecordOfficeAddress)},
	{"Qualifications & Training", fieldRange(EducationalQualification, LanguagesKnown)},
	{"Documents & IDs", fieldRange(ICardNo, DrivingLicenseExpiry)},
	{"Family & Dependents", fieldRange(MaritalStatus, DependentsAddress)},
	{"Health & Fitness", fieldRange(DOB, BodyMarks)},
	{"Bank & Finance", fieldRange(BankName, NomineeName)},
	{"Leave & Awards", fieldRange(LastLeaveAvailed, DisciplinaryActions)},
	{"Other Personal Info", fieldRange(Religion, Remarks)},
	{"Additional", fieldRange(NearestRailwayStation, ProceedingsStatus)},
}

var (
	// FormFields are the fields collected from the entry form, in order.
	FormFields = fieldRange(ArmyNo, ProceedingsStatus)
	// ExtraFields are maintained by the application rather than typed in.
	ExtraFields = fieldRange(PANUploadPath, LastModified)
	// AllFields is the full column order of the table.
	AllFields = fieldRange(ArmyNo, LastModified)
)

// MultiEntrySeparator joins the items of a multi-entry field.
const MultiEntrySeparator = "; "

func fieldRange(first, last Field) []Field {
	out := make([]Field, 0, last-first+1)
	for f := first; f <= last; f++ {
		out = append(out, f)
	}
	return out
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, numFields)
	for f := Field(0); f < numFields; f++ {
		m[fieldNames[f]] = f
	}
	return m
}()

// FieldByName looks up a field by its display name.
func FieldByName(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// JoinEntries normalises multi-line input for a multi-entry field: every line
// is trimmed, blank lines are dropped and the rest joined with
// MultiEntrySeparator.
func JoinEntries(raw string) string {
	lines := strings.Split(newlines.Replace(raw), "\n")
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return strings.Join(items, MultiEntrySeparator)
}

// SplitEntries is the inverse of JoinEntries for display in a textarea.
func SplitEntries(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, MultiEntrySeparator)
}
