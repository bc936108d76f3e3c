package evaluation

var standardRecommendations = []string{
	"Educational/school placement - Special Education Special Class (Minimum of 3 hours, 5 times a week)",
	"Design and implement a whole-year Individualized Educational Program",
	"Create a Team of professionals (SpED Team) to address cognitive and behavioral difficulties",
	"Occupational/Behavioral therapy - minimum of 2 times a week",
	"Speech Therapy - focus on expressive language pragmatics",
	"Parent & Immediate caregiver Direct Involvement in the Special Education program",
	"Family reorientation concerning methodologies for home-based behavior modifications",
	"Increase self-help skills through partnership of auxiliary therapist/services & family intervention",
	"Increase psychosocial exposure like going to the mall and increase interaction with children",
}

var standardWebsites = []string{
	// support organizations
	"autismsocietyphilippines.org",
	"adhdsociety.ph",
	"dsapi.org",
	"blind.org.ph",
	"norfil.org",
	"specialolympicspilipinas.org",
	"kythe.org",
	"unilabfoundation.org",

	// government agencies
	"ncda.gov.ph",
	"dswd.gov.ph",
	"deped.gov.ph",
	"cwc.gov.ph",

	// international resources
	"autism.org",
	"childmind.org",
	"understood.org",
	"cdc.gov/ncbddd/autism",
	"who.int/health-topics/disability",
	"bookshare.org",
	"chadd.org",
	"researchautism.org",
}

// StandardDefaults returns copies of the standard recommendations & websites.
func StandardDefaults() Defaults {
	return Defaults{
		Recommendations: append([]string(nil), standardRecommendations...),
		Websites:        append([]string(nil), standardWebsites...),
	}
}
