package gmt

import (
	"fmt"
	"strings"
)

// RuleConfig carries the organisational policy knobs the validation rules
// depend on.
type RuleConfig struct {
	// DisallowedBucket is the catch-all activity that must not be used
	// without force.
	DisallowedBucket string
	// HiringBucketHint is the activity substring that legitimises
	// interview/presentation comments.
	HiringBucketHint string
}

// Rule is one pre-flight predicate. A nil result means the candidate
// passes.
type Rule func(c Candidate, lookups *Lookups, force bool) *ValidationError

// Rules returns the pipeline in its fixed evaluation order.
func Rules(cfg RuleConfig) []Rule {
	return []Rule{
		ruleNonEmptyComments,
		ruleNoTopLevelActivity,
		ruleNoTopLevelCustomer,
		ruleNoDisallowedBucket(cfg.DisallowedBucket),
		ruleSuggestHiringBucket(cfg.HiringBucketHint),
	}
}

// Validator runs the rule pipeline against candidate entries before they
// are submitted. It never mutates the candidate.
type Validator struct {
	rules   []Rule
	lookups *Lookups
}

// NewValidator builds a validator bound to the session's lookup tables.
func NewValidator(cfg RuleConfig, lookups *Lookups) *Validator {
	return &Validator{rules: Rules(cfg), lookups: lookups}
}

// Validate runs the rules in order and returns the first violation, or nil
// when the candidate passes all of them.
func (v *Validator) Validate(c Candidate, force bool) error {
	for _, rule := range v.rules {
		if verr := rule(c, v.lookups, force); verr != nil {
			return verr
		}
	}
	return nil
}

func ruleNonEmptyComments(c Candidate, _ *Lookups, _ bool) *ValidationError {
	if strings.TrimSpace(c.Comments) == "" {
		return &ValidationError{
			Reason:  ReasonEmptyComments,
			Message: "comments field may not be empty",
		}
	}
	return nil
}

func ruleNoTopLevelActivity(c Candidate, lookups *Lookups, _ bool) *ValidationError {
	if lookups.TopLevelTask(c.Activity) {
		return &ValidationError{
			Reason:  ReasonTopLevelCategory,
			Field:   "activity",
			Message: fmt.Sprintf("not allowed to use top level category for activity %q", c.Activity),
		}
	}
	return nil
}

func ruleNoTopLevelCustomer(c Candidate, lookups *Lookups, _ bool) *ValidationError {
	if lookups.TopLevelCustomer(c.Customer) {
		return &ValidationError{
			Reason:  ReasonTopLevelCategory,
			Field:   "customer",
			Message: fmt.Sprintf("not allowed to use top level category for customer %q", c.Customer),
		}
	}
	return nil
}

func ruleNoDisallowedBucket(bucket string) Rule {
	return func(c Candidate, _ *Lookups, force bool) *ValidationError {
		if force || bucket == "" {
			return nil
		}
		if strings.EqualFold(c.Activity, bucket) {
			return &ValidationError{
				Reason:  ReasonDisallowedBucket,
				Field:   "activity",
				Message: fmt.Sprintf("never use %q! (use --force to override this rule)", bucket),
			}
		}
		return nil
	}
}

func ruleSuggestHiringBucket(hint string) Rule {
	return func(c Candidate, _ *Lookups, force bool) *ValidationError {
		if force || hint == "" {
			return nil
		}
		// The comment words are matched as authored; the activity hint is
		// case-insensitive.
		mentions := strings.Contains(c.Comments, "interview") || strings.Contains(c.Comments, "presentation")
		if mentions && !strings.Contains(strings.ToLower(c.Activity), strings.ToLower(hint)) {
			return &ValidationError{
				Reason:  ReasonSuggestAlternateBucket,
				Field:   "activity",
				Message: "consider using a hiring activity for this entry (use --force to override this rule)",
			}
		}
		return nil
	}
}
