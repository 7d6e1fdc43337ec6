package schedule

// TimePoint is a named stop along the route at which times are scheduled.
// AliasFor is only set on the synthesised terminal duplicate created when a
// loop route visits its origin stop a second time.
type TimePoint struct {
	ID       string `groups:"basic" bson:"id"`
	Name     string `groups:"basic" bson:"name"`
	Sequence int    `groups:"basic" bson:"sequence"`
	AliasFor string `groups:"basic" bson:"aliasFor,omitempty"`
}

func (t *TimePoint) IsAlias() bool {
	return t.AliasFor != ""
}
