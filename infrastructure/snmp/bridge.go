package snmp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/macscan/domain/entities"
)

// BRIDGE-MIB, Q-BRIDGE-MIB and IF-MIB columns walked by the getter.
const (
	OIDDot1qTpFdbPort       = "1.3.6.1.2.1.17.7.1.2.2.1.2"
	OIDDot1qTpFdbStatus     = "1.3.6.1.2.1.17.7.1.2.2.1.3"
	OIDDot1dTpFdbPort       = "1.3.6.1.2.1.17.4.3.1.2"
	OIDDot1dTpFdbStatus     = "1.3.6.1.2.1.17.4.3.1.3"
	OIDDot1dBasePortIfIndex = "1.3.6.1.2.1.17.1.4.1.2"
	OIDIfName               = "1.3.6.1.2.1.31.1.1.1.1"
)

// dot1dTpFdbStatus / dot1qTpFdbStatus values
const (
	fdbStatusInvalid = 2
	fdbStatusMgmt    = 5
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultRetries = 1
)

// Walker is the subset of gosnmp used by the getter
type Walker interface {
	BulkWalk(rootOid string, walkFn gosnmp.WalkFunc) error
}

// BridgeGetter reads a forwarding table through SNMP and returns getter records
type BridgeGetter struct {
	config entities.SwitchConfig
	dial   func(ctx context.Context) (Walker, func(), error)
	log    *logrus.Entry
}

// NewBridgeGetter creates a getter for one switch
func NewBridgeGetter(cfg entities.SwitchConfig) *BridgeGetter {
	g := &BridgeGetter{
		config: cfg,
		log:    logrus.WithFields(logrus.Fields{"device": cfg.DeviceID(), "source": "snmp"}),
	}
	g.dial = g.connect
	return g
}

// NewBridgeGetterWithWalker creates a getter that walks through w
func NewBridgeGetterWithWalker(cfg entities.SwitchConfig, w Walker) *BridgeGetter {
	g := NewBridgeGetter(cfg)
	g.dial = func(context.Context) (Walker, func(), error) { return w, func() {}, nil }
	return g
}

func (g *BridgeGetter) connect(ctx context.Context) (Walker, func(), error) {
	port := g.config.Port
	if port <= 0 {
		port = 161
	}
	client := &gosnmp.GoSNMP{
		Target:    g.config.Target,
		Port:      uint16(port),
		Community: g.config.SnmpCommunity,
		Version:   gosnmp.Version2c,
		Timeout:   DefaultTimeout,
		Retries:   DefaultRetries,
		Context:   ctx,
	}
	if err := client.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect error: %w", err)
	}
	return client, func() { client.Conn.Close() }, nil
}

// FetchRecords walks the bridge tables and joins them into records.
// Q-BRIDGE is tried first; switches without it fall back to BRIDGE-MIB.
func (g *BridgeGetter) FetchRecords(ctx context.Context) ([]entities.RawRecord, error) {
	walker, closeFn, err := g.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s via SNMP: %w", g.config.Target, err)
	}
	defer closeFn()

	qbridge := true
	ports, err := walkColumn(walker, OIDDot1qTpFdbPort)
	if err != nil || len(ports) == 0 {
		g.log.Debugf("Q-BRIDGE table unavailable (%v), falling back to BRIDGE-MIB", err)
		qbridge = false
		ports, err = walkColumn(walker, OIDDot1dTpFdbPort)
		if err != nil {
			return nil, fmt.Errorf("SNMP walk error: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	statusOID := OIDDot1dTpFdbStatus
	if qbridge {
		statusOID = OIDDot1qTpFdbStatus
	}
	statuses, err := walkColumn(walker, statusOID)
	if err != nil {
		g.log.Debugf("status walk failed: %v", err)
	}
	baseIfIndex, err := walkColumn(walker, OIDDot1dBasePortIfIndex)
	if err != nil {
		g.log.Debugf("base port walk failed: %v", err)
	}
	ifNames, err := walkColumn(walker, OIDIfName)
	if err != nil {
		g.log.Debugf("ifName walk failed: %v", err)
	}

	records := BuildRecords(FdbTable{
		QBridge:         qbridge,
		Ports:           ports,
		Statuses:        statuses,
		BasePortIfIndex: baseIfIndex,
		IfNames:         ifNames,
	})
	g.log.Debugf("Collected %d records", len(records))
	return records, nil
}

// Column maps the index suffix of a walked column to its PDU
type Column map[string]gosnmp.SnmpPDU

func walkColumn(w Walker, root string) (Column, error) {
	col := make(Column)
	err := w.BulkWalk(root, func(pdu gosnmp.SnmpPDU) error {
		name := strings.TrimPrefix(pdu.Name, ".")
		suffix := strings.TrimPrefix(name, root+".")
		if suffix == name {
			return nil
		}
		col[suffix] = pdu
		return nil
	})
	return col, err
}

// FdbTable holds the raw columns needed to build records
type FdbTable struct {
	QBridge         bool
	Ports           Column
	Statuses        Column
	BasePortIfIndex Column
	IfNames         Column
}

// BuildRecords joins the walked columns into records ordered by table index
func BuildRecords(t FdbTable) []entities.RawRecord {
	indexes := make([]string, 0, len(t.Ports))
	for idx := range t.Ports {
		indexes = append(indexes, idx)
	}
	sortIndexes(indexes)

	records := make([]entities.RawRecord, 0, len(indexes))
	for _, idx := range indexes {
		vlan, macText, ok := ParseFdbIndex(idx, t.QBridge)
		if !ok {
			continue
		}
		rec := entities.RawRecord{
			Mac:       macText,
			Interface: t.interfaceName(toInt(t.Ports[idx].Value)),
		}
		if t.QBridge {
			rec.Vlan = vlan
		}
		if status, found := t.Statuses[idx]; found {
			switch toInt(status.Value) {
			case fdbStatusInvalid:
				rec.Active = entities.Bool(false)
			case fdbStatusMgmt:
				rec.Static = entities.Bool(true)
			}
		}
		records = append(records, rec)
	}
	return records
}

func (t FdbTable) interfaceName(bridgePort int) string {
	if bridgePort <= 0 {
		return ""
	}
	port := strconv.Itoa(bridgePort)
	pdu, found := t.BasePortIfIndex[port]
	if !found {
		return port
	}
	ifIndex := strconv.Itoa(toInt(pdu.Value))
	if name, ok := t.IfNames[ifIndex]; ok {
		if s := pduString(name); s != "" {
			return s
		}
	}
	return ifIndex
}

// ParseFdbIndex decodes the index of a forwarding table row. Q-BRIDGE rows
// are indexed by FDB id (the VLAN on most switches) and six MAC octets,
// BRIDGE-MIB rows by the six octets only.
func ParseFdbIndex(index string, qbridge bool) (int, string, bool) {
	parts := strings.Split(index, ".")
	vlan := 0
	if qbridge {
		if len(parts) != 7 {
			return 0, "", false
		}
		v, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, "", false
		}
		vlan = v
		parts = parts[1:]
	}
	macText, ok := DecimalMacToHex(strings.Join(parts, "."))
	return vlan, macText, ok
}

// DecimalMacToHex turns "0.17.34.51.68.85" into "00:11:22:33:44:55"
func DecimalMacToHex(dotted string) (string, bool) {
	parts := strings.Split(dotted, ".")
	if len(parts) != 6 {
		return "", false
	}
	hexParts := make([]string, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return "", false
		}
		hexParts[i] = fmt.Sprintf("%02x", n)
	}
	return strings.Join(hexParts, ":"), true
}

func toInt(v interface{}) int {
	if v == nil {
		return 0
	}
	return int(gosnmp.ToBigInt(v).Int64())
}

func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	}
	return ""
}

// sortIndexes orders OID suffixes numerically, component by component
func sortIndexes(indexes []string) {
	sort.Slice(indexes, func(i, j int) bool {
		return lessOID(indexes[i], indexes[j])
	})
}

func lessOID(a, b string) bool {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		if errA != nil || errB != nil {
			if pa[i] != pb[i] {
				return pa[i] < pb[i]
			}
			continue
		}
		if na != nb {
			return na < nb
		}
	}
	return len(pa) < len(pb)
}
