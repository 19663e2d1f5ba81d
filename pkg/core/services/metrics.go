package services

import "github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"

type nopMetrics struct{}

func (nopMetrics) ResolutionServed(domain.Platform, string) {}
func (nopMetrics) ResolutionFailed(string)                  {}
func (nopMetrics) EventRecorded()                           {}
func (nopMetrics) EventDropped(string)                      {}
