package phonemetrics_test

import (
	"context"
	"fmt"
	"testing"

	models "github.com/Schera-ole/phonemetrics/internal/model"
	"github.com/Schera-ole/phonemetrics/internal/reporter"
	"github.com/Schera-ole/phonemetrics/internal/service"
	"github.com/Schera-ole/phonemetrics/internal/sign"
	"github.com/Schera-ole/phonemetrics/internal/sink"
)

// Example of signing a request timestamp with the shared secret
func Example_sign() {
	signer := sign.NewSigner("VyWatNuqAp6GYDG")
	sig := signer.Sign(1737055057812)

	fmt.Println(sig)
	fmt.Println(signer.Verify(1737055057812, sig))
	// Output:
	// zlRf047zhWs%2B1XH5DUqUV8Fv07doAFpJUwmj6U7rh8s%3D
	// true
}

// Example of turning the phone's battery level into a number
func Example_parseLevel() {
	level, err := service.ParseLevel("36%")
	if err != nil {
		fmt.Printf("Error parsing level: %v\n", err)
		return
	}
	fmt.Println(level)
	// Output: 36
}

// Example of publishing a reading to the in-memory sink
func Example_reporter() {
	mem := sink.NewMemSink()
	r := reporter.New(mem, "", nil)

	err := r.Report(context.Background(), models.Reading{Identifier: "Dev", Value: 36, Timestamp: 1737054664309})
	if err != nil {
		fmt.Printf("Error reporting: %v\n", err)
		return
	}

	for _, p := range mem.Points() {
		id, _ := p.Dimension(models.PhoneIDDimension)
		fmt.Printf("%s/%s %s=%s %.0f %s %s\n", p.Namespace, p.Name, models.PhoneIDDimension, id, p.Value, p.Unit, p.Timestamp.Format("2006-01-02T15:04:05.000Z"))
	}
	// Output: phone/battery phone_id=Dev 36 Percent 2025-01-16T19:11:04.309Z
}

func TestExampleBasic(t *testing.T) {
	mem := sink.NewMemSink()
	r := reporter.New(mem, "home", nil)

	if err := r.Report(context.Background(), models.Reading{Identifier: "dev-1", Value: 5}); err != nil {
		t.Fatalf("Failed to report: %v", err)
	}
	points := mem.Points()
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	if points[0].Namespace != "home" {
		t.Errorf("Expected namespace home, got %s", points[0].Namespace)
	}
}
