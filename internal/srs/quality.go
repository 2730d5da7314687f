package srs

// Quality is a recall-quality rating on the SM-2 scale of 0 to 5.
type Quality int

const (
	// QualityBlackout is a total failure to recall.
	QualityBlackout Quality = 0
	// QualityWrong is an incorrect response where the answer felt familiar.
	QualityWrong Quality = 1
	// QualityWrongEasy is an incorrect response that seemed easy afterwards.
	QualityWrongEasy Quality = 2
	// QualityHard is a correct response recalled with serious difficulty.
	QualityHard Quality = 3
	// QualityGood is a correct response after some hesitation.
	QualityGood Quality = 4
	// QualityPerfect is a correct response with perfect recall.
	QualityPerfect Quality = 5
)

// lapseThreshold is the SM-2 boundary below which a review counts as a lapse.
const lapseThreshold = QualityHard

// Valid reports whether q is on the 0-5 scale.
func (q Quality) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// Lapse reports whether q represents failing recall.
func (q Quality) Lapse() bool {
	return q < lapseThreshold
}
