package prechecks

// Result is the outcome of one local check on a band name.
type Result struct {
	Name   string
	Passed bool
	Reason string
}

type Checker interface {
	Check(name string) Result
}
