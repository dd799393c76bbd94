// Package discovery announces and finds ut181a servers over mDNS.
//
// 'ut181a serve' registers a _ut181a._tcp service so dashboards on the
// local network can find the live measurement feed without knowing the
// host. 'ut181a discover' browses for those announcements.
//
// # Usage Example
//
//	adv, err := discovery.Advertise("UT181A bench", 8181, map[string]string{
//	    "version": version.Version,
//	})
//	if err != nil {
//	    return err
//	}
//	defer adv.Shutdown()
//
//	services, err := discovery.NewScanner().Scan(ctx)
//	for _, svc := range services {
//	    fmt.Println(svc.WebSocketURL())
//	}
//
// # Network Requirements
//
// mDNS uses UDP multicast on port 5353. Announcements do not cross
// routers or VLANs without a reflector.
package discovery
