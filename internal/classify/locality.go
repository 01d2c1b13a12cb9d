package classify

import "github.com/geoclaim/internal/domain"

// LocalityClassification is everything derived from a placemark's text.
type LocalityClassification struct {
	Type         domain.LocalityType
	Status       domain.CoordStatus
	MiningMethod *string
	DepositType  *string
}

// LocalityClassifier combines the locality, status and mining tables.
type LocalityClassifier struct {
	types    *Classifier
	deposits *Classifier
	methods  *Classifier
	status   *Classifier
}

// NewLocalityClassifier compiles the default tables.
func NewLocalityClassifier() *LocalityClassifier {
	return &LocalityClassifier{
		types:    Compile(LocalityTypeTable),
		deposits: Compile(DepositTypeTable),
		methods:  Compile(MiningMethodTable),
		status:   Compile(CoordStatusTable),
	}
}

// Classify inspects name and description together. The status table only
// looks at the description.
func (c *LocalityClassifier) Classify(name, description string) LocalityClassification {
	text := Normalize(name + " " + description)

	result := LocalityClassification{
		Type:   domain.LocalityType(c.types.ClassifyNormalized(text)),
		Status: domain.CoordStatus(c.status.Classify(description)),
	}

	if result.Type.IsMineLike() {
		method := c.methods.ClassifyNormalized(text)
		deposit := c.deposits.ClassifyNormalized(text)
		result.MiningMethod = &method
		result.DepositType = &deposit
	}

	return result
}

// Type classifies only the locality type.
func (c *LocalityClassifier) Type(text string) domain.LocalityType {
	return domain.LocalityType(c.types.Classify(text))
}
