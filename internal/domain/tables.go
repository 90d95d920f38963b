package domain

var Tables = []interface{}{
	// Network
	&NetRouter{},
}
