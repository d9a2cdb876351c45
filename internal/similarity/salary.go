package similarity

// SalaryMatch scores how well a job's offered salary fits a worker's
// desired range. In-range salaries score 1.0; outside the range the score
// decays linearly, reaching 0 once the salary deviates from the nearest
// bound by half that bound. The result is never negative.
func SalaryMatch(jobSalary, workerMin, workerMax float64) float64 {
	if jobSalary <= 0 || workerMin < 0 || workerMax < workerMin {
		return 0.0
	}

	if jobSalary >= workerMin && jobSalary <= workerMax {
		return 1.0
	}

	if jobSalary < workerMin {
		if workerMin <= 0 {
			return 0.0
		}
		score := 1.0 - (workerMin-jobSalary)/(workerMin*0.5)
		if score < 0 {
			return 0.0
		}
		return score
	}

	// jobSalary > workerMax
	if workerMax <= 0 {
		return 0.0
	}
	score := 1.0 - (jobSalary-workerMax)/(workerMax*0.5)
	if score < 0 {
		return 0.0
	}
	return score
}
