package ippool

import "net"

// ListType names which CIDR list rejected or would have allowed an address,
// for the IpPoolCidrFilter event (spec.md §4.3).
type ListType string

const (
	ListBlacklist ListType = "blacklist"
	ListWhitelist ListType = "whitelist"
)

// cidrFilter rejects blacklisted addresses outright and, when a whitelist is
// configured, rejects anything not covered by it (allow-only semantics; an
// empty whitelist allows everything).
type cidrFilter struct {
	blacklist []*net.IPNet
	whitelist []*net.IPNet
}

func newCidrFilter(blacklist, whitelist []string) *cidrFilter {
	return &cidrFilter{blacklist: parseCIDRs(blacklist), whitelist: parseCIDRs(whitelist)}
}

func parseCIDRs(cidrs []string) []*net.IPNet {
	var out []*net.IPNet
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// allow reports whether ip passes the filter, and if not, which list and
// which CIDR rejected it.
func (f *cidrFilter) allow(ip string) (bool, ListType, string) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true, "", ""
	}
	for _, n := range f.blacklist {
		if n.Contains(parsed) {
			return false, ListBlacklist, n.String()
		}
	}
	if len(f.whitelist) == 0 {
		return true, "", ""
	}
	for _, n := range f.whitelist {
		if n.Contains(parsed) {
			return true, "", ""
		}
	}
	return false, ListWhitelist, ""
}
