package discovery

// ServiceTypeTesting identifies the DNS-SD service a node advertises
// while willing to participate in reachability tests as Charlie.
const ServiceTypeTesting = "_peertest._udp"

// DefaultDomain is the default mDNS domain.
const DefaultDomain = "local."
