package pipeline

// StageKind identifies a stage variant. Dispatch is an explicit enum plus a
// per-variant state struct, never reflection.
type StageKind int

const (
	KindMovingAverage StageKind = iota
	KindRMS
	KindVariance
	KindZScore
	KindMeanAbsValue
	KindRectify
	KindFilter
	KindLMS
	KindRLS
	KindInterpolate
	KindDecimate
	KindResample
	KindConvolve
	KindWavelet
	KindHilbert
	KindRegressionSlope
	KindRegressionIntercept
	KindRegressionResiduals
	KindRegressionPredictions
)

var kindNames = map[StageKind]string{
	KindMovingAverage:         "movingAverage",
	KindRMS:                   "rms",
	KindVariance:              "variance",
	KindZScore:                "zscore",
	KindMeanAbsValue:          "meanAbsValue",
	KindRectify:               "rectify",
	KindFilter:                "filter",
	KindLMS:                   "lms",
	KindRLS:                   "rls",
	KindInterpolate:           "interpolate",
	KindDecimate:              "decimate",
	KindResample:              "resample",
	KindConvolve:              "convolve",
	KindWavelet:               "wavelet",
	KindHilbert:               "hilbertEnvelope",
	KindRegressionSlope:       "regressionSlope",
	KindRegressionIntercept:   "regressionIntercept",
	KindRegressionResiduals:   "regressionResiduals",
	KindRegressionPredictions: "regressionPredictions",
}

func (k StageKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}
