package scoring

import (
	"regexp"
	"strconv"
)

// noBudgetCeiling is the budget maximum assumed when the text has no number.
const noBudgetCeiling = 999

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// SalaryCompatible reports whether a candidate's expectation fits a budget:
// the first number of the expectation must not exceed the last number of the
// budget. Either side being empty counts as compatible.
func SalaryCompatible(expected, budget string) bool {
	if expected == "" || budget == "" {
		return true
	}
	return salaryMin(expected) <= budgetMax(budget)
}

func salaryMin(text string) float64 {
	nums := numberRe.FindAllString(text, -1)
	if len(nums) == 0 {
		return 0
	}
	return parseFloat(nums[0])
}

func budgetMax(text string) float64 {
	nums := numberRe.FindAllString(text, -1)
	if len(nums) == 0 {
		return noBudgetCeiling
	}
	return parseFloat(nums[len(nums)-1])
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
