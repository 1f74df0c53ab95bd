package datastructure

type TurnInstruction uint8

const (
	NoTurn TurnInstruction = iota
	GoStraight
	TurnSlightRight
	TurnRight
	TurnSharpRight
	UTurn
	TurnSharpLeft
	TurnLeft
	TurnSlightLeft
	ReachViaLocation
	HeadOn
	EnterRoundAbout
	LeaveRoundAbout
	StayOnRoundAbout
	StartAtEndOfStreet
	ReachedYourDestination
	EnterAgainstAllowedDirection
	LeaveAgainstAllowedDirection

	InverseAccessRestrictionFlag TurnInstruction = 127
	AccessRestrictionFlag        TurnInstruction = 128
	AccessRestrictionPenalty     TurnInstruction = 129
)

var turnInstructionNames = map[TurnInstruction]string{
	NoTurn:                       "no_turn",
	GoStraight:                   "go_straight",
	TurnSlightRight:              "turn_slight_right",
	TurnRight:                    "turn_right",
	TurnSharpRight:               "turn_sharp_right",
	UTurn:                        "u_turn",
	TurnSharpLeft:                "turn_sharp_left",
	TurnLeft:                     "turn_left",
	TurnSlightLeft:               "turn_slight_left",
	ReachViaLocation:             "reach_via_location",
	HeadOn:                       "head_on",
	EnterRoundAbout:              "enter_roundabout",
	LeaveRoundAbout:              "leave_roundabout",
	StayOnRoundAbout:             "stay_on_roundabout",
	StartAtEndOfStreet:           "start_at_end_of_street",
	ReachedYourDestination:       "reached_your_destination",
	EnterAgainstAllowedDirection: "enter_against_allowed_direction",
	LeaveAgainstAllowedDirection: "leave_against_allowed_direction",
	InverseAccessRestrictionFlag: "inverse_access_restriction",
	AccessRestrictionFlag:        "access_restriction",
	AccessRestrictionPenalty:     "access_restriction_penalty",
}

func (t TurnInstruction) String() string {
	if name, ok := turnInstructionNames[t]; ok {
		return name
	}
	return "unknown"
}

// TravelMode fits in 4 bits.
type TravelMode uint8

const (
	TravelModeInaccessible TravelMode = iota
	TravelModeDefault
	TravelModeDriving
	TravelModeCycling
	TravelModeWalking
	TravelModeFerry
	TravelModeTrain
	TravelModePushingBike
)

func (m TravelMode) String() string {
	switch m {
	case TravelModeInaccessible:
		return "inaccessible"
	case TravelModeDefault:
		return "default"
	case TravelModeDriving:
		return "driving"
	case TravelModeCycling:
		return "cycling"
	case TravelModeWalking:
		return "walking"
	case TravelModeFerry:
		return "ferry"
	case TravelModeTrain:
		return "train"
	case TravelModePushingBike:
		return "pushing_bike"
	}
	return "unknown"
}
