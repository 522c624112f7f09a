package agent

// Option lists for the enumerated profile fields. The form rejects values
// outside these lists.

var Prefixes = []string{"Mr", "Mrs", "Miss", "Dr", "Prof", "Engr"}

var Genders = []string{"Male", "Female", "Other"}

var MaritalStatuses = []string{"Single", "Married", "Divorced", "Widowed"}

var States = []string{
	"Abia", "Adamawa", "Akwa Ibom", "Anambra", "Bauchi", "Bayelsa",
	"Benue", "Borno", "Cross River", "Delta", "Ebonyi", "Edo",
	"Ekiti", "Enugu", "FCT", "Gombe", "Imo", "Jigawa", "Kaduna",
	"Kano", "Katsina", "Kebbi", "Kogi", "Kwara", "Lagos", "Nasarawa",
	"Niger", "Ogun", "Ondo", "Osun", "Oyo", "Plateau", "Rivers",
	"Sokoto", "Taraba", "Yobe", "Zamfara",
}

var NOKRelationships = []string{"Spouse", "Parent", "Sibling", "Child", "Friend", "Other"}

var IDTypes = []string{"NIN", "Driver's License", "International Passport", "Voter's Card"}

var Banks = []string{
	"Access Bank", "Citibank", "Diamond Bank", "Ecobank Nigeria",
	"Fidelity Bank", "First Bank of Nigeria", "First City Monument Bank",
	"Guaranty Trust Bank", "Heritage Bank", "Keystone Bank", "Polaris Bank",
	"Providus Bank", "Stanbic IBTC Bank", "Standard Chartered Bank",
	"Sterling Bank", "Union Bank of Nigeria", "United Bank for Africa",
	"Unity Bank", "Wema Bank", "Zenith Bank",
}

var Regions = []string{"North", "South", "East", "West", "Central", "Multi-Region"}

func InList(value string, list []string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
