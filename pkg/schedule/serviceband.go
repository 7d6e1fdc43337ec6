package schedule

// ServiceBand groups time periods whose trips take a similar amount of
// running time. StartIndex/EndIndex span the member period indices; both are
// -1 for an empty band.
type ServiceBand struct {
	Name        string  `groups:"basic" bson:"name"`
	StartIndex  int     `groups:"basic" bson:"startIndex"`
	EndIndex    int     `groups:"basic" bson:"endIndex"`
	AvgDuration float64 `groups:"basic" bson:"avgDuration"`
	Color       string  `groups:"basic" bson:"color"`
	TextColor   string  `groups:"basic" bson:"textColor"`
}
