// Command gen writes the sample order datasets under testdata/ in every
// format the loader reads.
package main

import (
	"log"
	"os"
	"strconv"

	goavro "github.com/linkedin/goavro/v2"
	parquet "github.com/parquet-go/parquet-go"

	"github.com/razeghi71/csvqb/loader"
	"github.com/razeghi71/csvqb/table"
)

type Order struct {
	City    string  `parquet:"city"`
	Product string  `parquet:"product"`
	Qty     int32   `parquet:"qty"`
	Price   float64 `parquet:"price"`
}

var orders = []Order{
	{"NY", "apple", 3, 1.25},
	{"LA", "pear", 5, 0.8},
	{"NY", "pear", 2, 0.8},
	{"SF", "apple", 7, 1.25},
	{"LA", "apple", 1, 1.3},
	{"NY", "plum", 4, 2.1},
}

const orderSchema = `{
	"type": "record",
	"name": "order",
	"fields": [
		{"name": "city", "type": "string"},
		{"name": "product", "type": "string"},
		{"name": "qty", "type": "int"},
		{"name": "price", "type": "double"}
	]
}`

func main() {
	if err := writeCSV("testdata/orders.csv"); err != nil {
		log.Fatal(err)
	}
	if err := writeParquet("testdata/orders.parquet"); err != nil {
		log.Fatal(err)
	}
	if err := writeAvro("testdata/orders.avro"); err != nil {
		log.Fatal(err)
	}
}

func writeCSV(path string) error {
	g := table.Grid{{"city", "product", "qty", "price"}}
	for _, o := range orders {
		g = append(g, table.Row{
			o.City,
			o.Product,
			strconv.Itoa(int(o.Qty)),
			strconv.FormatFloat(o.Price, 'f', -1, 64),
		})
	}
	return loader.Save(path, g)
}

func writeParquet(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := parquet.NewWriter(f)
	for _, o := range orders {
		if err := w.Write(o); err != nil {
			return err
		}
	}
	return w.Close()
}

func writeAvro(path string) error {
	codec, err := goavro.NewCodec(orderSchema)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: f, Codec: codec})
	if err != nil {
		return err
	}
	records := make([]interface{}, len(orders))
	for i, o := range orders {
		records[i] = map[string]interface{}{
			"city":    o.City,
			"product": o.Product,
			"qty":     o.Qty,
			"price":   o.Price,
		}
	}
	return w.Append(records)
}
