package model

/*
 *  Deep copies. The coordinator hands copies to its readers so that the
 *  live model is only ever touched under the coordinator's write lock.
 */

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}

	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyAttrs(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}

	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (d *Device) DeepCopy() *Device {
	nd := *d
	if d.BatteryLevel != nil {
		level := *d.BatteryLevel
		nd.BatteryLevel = &level
	}
	if d.SignalStrength != nil {
		level := *d.SignalStrength
		nd.SignalStrength = &level
	}
	nd.Attributes = copyAttrs(d.Attributes)

	return &nd
}

func (g *Group) DeepCopy() *Group {
	ng := *g
	ng.DeviceIDs = copyStrings(g.DeviceIDs)

	return &ng
}

func (r *Room) DeepCopy() *Room {
	nr := *r
	nr.DeviceIDs = copyStrings(r.DeviceIDs)

	return &nr
}

func (v *VideoEdge) DeepCopy() *VideoEdge {
	nv := *v
	return &nv
}

func (s *Space) DeepCopy() *Space {
	ns := *s

	ns.HubDetails = copyAttrs(s.HubDetails)

	ns.Groups = make(map[string]*Group, len(s.Groups))
	for id, g := range s.Groups {
		ns.Groups[id] = g.DeepCopy()
	}

	ns.Rooms = make(map[string]*Room, len(s.Rooms))
	for id, r := range s.Rooms {
		ns.Rooms[id] = r.DeepCopy()
	}

	ns.Devices = make(map[string]*Device, len(s.Devices))
	for id, d := range s.Devices {
		ns.Devices[id] = d.DeepCopy()
	}

	ns.VideoEdges = make(map[string]*VideoEdge, len(s.VideoEdges))
	for id, v := range s.VideoEdges {
		ns.VideoEdges[id] = v.DeepCopy()
	}

	ns.Notifications = make([]Notification, len(s.Notifications))
	copy(ns.Notifications, s.Notifications)

	return &ns
}

func (a *Account) DeepCopy() *Account {
	na := NewAccount()
	for id, s := range a.Spaces {
		na.Spaces[id] = s.DeepCopy()
	}

	return na
}
