package main

import (
	"fmt"
	"sort"

	"github.com/vdc-project/vdchost/pkg/cli"
	"github.com/vdc-project/vdchost/pkg/entity"
	"github.com/vdc-project/vdchost/pkg/proptree"
)

// printHostTree renders the host's connector/device tree as a set of
// tables, grounded on cmd/newtron's "show" output style (pkg/cli.Table).
// When showProperties is set, each device's full property tree (spec.md
// §4.5's get-property result shape) is also dumped as a flattened
// dotted-path table.
func printHostTree(host *entity.Host, showProperties bool) {
	fmt.Printf("%s  %s\n\n", cli.Bold(host.Name), host.UID.String())

	connectors := host.Connectors()
	if len(connectors) == 0 {
		fmt.Println(cli.Dim("(no connectors)"))
		return
	}

	for _, c := range connectors {
		fmt.Printf("%s  %s  %s\n", cli.Bold(c.Name), c.UID.String(), cli.Dim(c.ModelID))

		t := cli.NewDeviceTable()
		for _, d := range c.Devices() {
			t.Row(d.UID.String(), d.Name, cli.ZoneLabel(d.Zone), cli.AnnouncedLabel(d.Announced()))
		}
		t.WithPrefix("  ").Flush()
		fmt.Println()

		if showProperties {
			for _, d := range c.Devices() {
				fmt.Printf("  %s properties:\n", cli.Bold(d.Name))
				printPropertyTable(d.Properties(), "    ")
				fmt.Println()
			}
		}
	}
}

// printPropertyTable flattens a property subtree into dotted paths and
// renders it as a two-column table (spec.md §4.5's property-tree shape).
func printPropertyTable(tree proptree.Value, prefix string) {
	rows := map[string]string{}
	flattenProperties("", tree, rows)

	paths := make([]string, 0, len(rows))
	for p := range rows {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	t := cli.NewPropertyTable()
	for _, p := range paths {
		t.Row(p, rows[p])
	}
	t.WithPrefix(prefix).Flush()
}

func flattenProperties(path string, v proptree.Value, out map[string]string) {
	if m, ok := v.Map(); ok {
		for key, child := range m {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			flattenProperties(childPath, child, out)
		}
		return
	}
	out[path] = scalarString(v)
}

func scalarString(v proptree.Value) string {
	switch v.Kind() {
	case proptree.KindString:
		s, _ := v.String()
		return s
	case proptree.KindInt:
		i, _ := v.Int()
		return fmt.Sprintf("%d", i)
	case proptree.KindDouble:
		d, _ := v.Double()
		return fmt.Sprintf("%v", d)
	case proptree.KindBool:
		b, _ := v.Bool()
		return fmt.Sprintf("%v", b)
	case proptree.KindNull:
		return cli.Dim("null")
	default:
		return v.GoString()
	}
}
